// internal/buffer/backfill.go
package buffer

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/taskwing/internal/types"
)

// DefaultBackfillTimeout bounds the whole startup backfill. A stalled
// channel must not delay buffer readiness past this.
const DefaultBackfillTimeout = 30 * time.Second

// Backfill seeds the buffer with historical messages for every context
// channel. Sources return newest-first; messages are ingested oldest-first
// so buffer order stays chronological. Channels are fetched concurrently
// and a failed channel is logged and skipped rather than aborting the
// rest. Returns the number of messages stored.
func (b *Buffer) Backfill(ctx context.Context, source types.HistorySource, perChannelLimit int, timeout time.Duration) int {
	if timeout <= 0 {
		timeout = DefaultBackfillTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		stored int
		g, gtx = errgroup.WithContext(ctx)
	)
	results := make(chan int, 16)

	for _, id := range b.classifier.ContextChannels() {
		g.Go(func() error {
			history, err := source.FetchHistory(gtx, id, perChannelLimit)
			if err != nil {
				slog.Warn("backfill fetch failed", "channel_id", id, "error", err)
				return nil
			}

			// Newest-first from the source; walk backwards to ingest
			// oldest-first.
			count := 0
			for i := len(history) - 1; i >= 0; i-- {
				if b.Ingest(history[i]) {
					count++
				}
			}
			results <- count
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()
	for n := range results {
		stored += n
	}

	slog.Info("backfill complete", "messages", stored)
	return stored
}
