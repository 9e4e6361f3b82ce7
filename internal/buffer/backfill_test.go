package buffer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/user/taskwing/internal/channels"
	"github.com/user/taskwing/internal/types"
)

// fakeSource serves canned newest-first history per channel.
type fakeSource struct {
	history map[types.ChannelID][]*types.Message
	fail    map[types.ChannelID]bool
}

func (f *fakeSource) FetchHistory(ctx context.Context, channel types.ChannelID, limit int) ([]*types.Message, error) {
	if f.fail[channel] {
		return nil, fmt.Errorf("channel %d unavailable", channel)
	}
	history := f.history[channel]
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func TestBackfillChronological(t *testing.T) {
	classifier := channels.New([]types.ChannelID{100}, nil)
	b := New(10, classifier)

	base := time.Now()
	source := &fakeSource{history: map[types.ChannelID][]*types.Message{
		// Newest first, as real history endpoints return.
		100: {
			{ID: "m3", ChannelID: 100, Author: "alice", Content: "three", At: base.Add(2 * time.Second)},
			{ID: "m2", ChannelID: 100, Author: "alice", Content: "two", At: base.Add(time.Second)},
			{ID: "m1", ChannelID: 100, Author: "alice", Content: "one", At: base},
		},
	}}

	stored := b.Backfill(context.Background(), source, 50, time.Second)
	if stored != 3 {
		t.Fatalf("expected 3 stored, got %d", stored)
	}

	got := b.Recent(10)
	if got[0].ID != "m1" || got[1].ID != "m2" || got[2].ID != "m3" {
		t.Errorf("expected chronological order [m1 m2 m3], got [%s %s %s]", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestBackfillDedupAgainstLive(t *testing.T) {
	classifier := channels.New([]types.ChannelID{100}, nil)
	b := New(10, classifier)

	// A live message arrives before backfill runs.
	b.Ingest(&types.Message{ID: "m2", ChannelID: 100, Author: "alice", Content: "live", At: time.Now()})

	source := &fakeSource{history: map[types.ChannelID][]*types.Message{
		100: {
			{ID: "m2", ChannelID: 100, Author: "alice", Content: "historical copy", At: time.Now()},
			{ID: "m1", ChannelID: 100, Author: "alice", Content: "one", At: time.Now()},
		},
	}}

	stored := b.Backfill(context.Background(), source, 50, time.Second)
	if stored != 1 {
		t.Errorf("expected 1 stored (m2 deduplicated), got %d", stored)
	}
	if b.Len() != 2 {
		t.Errorf("expected 2 messages total, got %d", b.Len())
	}
}

func TestBackfillPartialFailure(t *testing.T) {
	classifier := channels.New([]types.ChannelID{100, 101}, nil)
	b := New(10, classifier)

	source := &fakeSource{
		history: map[types.ChannelID][]*types.Message{
			100: {{ID: "m1", ChannelID: 100, Author: "alice", Content: "one", At: time.Now()}},
			101: {{ID: "n1", ChannelID: 101, Author: "bob", Content: "two", At: time.Now()}},
		},
		fail: map[types.ChannelID]bool{101: true},
	}

	stored := b.Backfill(context.Background(), source, 50, time.Second)
	if stored != 1 {
		t.Errorf("expected 1 stored despite failed channel, got %d", stored)
	}
}

func TestBackfillPerChannelLimit(t *testing.T) {
	classifier := channels.New([]types.ChannelID{100}, nil)
	b := New(50, classifier)

	var history []*types.Message
	for i := 9; i >= 0; i-- {
		history = append(history, &types.Message{
			ID:        types.MessageID(fmt.Sprintf("m%d", i)),
			ChannelID: 100,
			Author:    "alice",
			Content:   "content",
			At:        time.Now(),
		})
	}
	source := &fakeSource{history: map[types.ChannelID][]*types.Message{100: history}}

	stored := b.Backfill(context.Background(), source, 3, time.Second)
	if stored != 3 {
		t.Fatalf("expected 3 stored, got %d", stored)
	}

	// The three newest survive, in chronological order.
	got := b.Recent(10)
	if got[0].ID != "m7" || got[2].ID != "m9" {
		t.Errorf("expected [m7 m8 m9], got first=%s last=%s", got[0].ID, got[2].ID)
	}
}

func TestBackfillNoContextChannels(t *testing.T) {
	classifier := channels.New(nil, []types.ChannelID{200})
	b := New(10, classifier)

	source := &fakeSource{}
	if stored := b.Backfill(context.Background(), source, 50, time.Second); stored != 0 {
		t.Errorf("expected 0 stored with no context channels, got %d", stored)
	}
}
