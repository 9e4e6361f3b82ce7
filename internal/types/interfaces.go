// internal/types/interfaces.go
package types

import "context"

// HistorySource provides one-time historical message fetch for backfill.
// Implementations return up to limit messages for the channel, newest
// first. Each call is independently fallible.
type HistorySource interface {
	FetchHistory(ctx context.Context, channel ChannelID, limit int) ([]*Message, error)
}

// Journal records messages as they arrive so they can be replayed as
// backfill history after a restart.
type Journal interface {
	HistorySource
	Record(ctx context.Context, msg *Message) error
}
