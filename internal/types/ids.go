// internal/types/ids.go
package types

import (
	"strconv"

	"github.com/google/uuid"
)

// ChannelID identifies a chat channel at the gateway.
type ChannelID int64

func (c ChannelID) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// MessageID is the source-assigned identity of a message. Uniqueness is
// enforced by the context buffer, not here.
type MessageID string

// RunID correlates log lines for a single inbound event as it moves
// through the dispatch loop.
type RunID string

func NewRunID() RunID {
	return RunID(uuid.New().String())
}
