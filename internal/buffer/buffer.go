// Package buffer holds the bounded in-memory message history that feeds
// prompt construction.
package buffer

import (
	"strings"
	"sync"

	"github.com/user/taskwing/internal/channels"
	"github.com/user/taskwing/internal/types"
)

// Buffer is a bounded FIFO of messages from context channels. Insertion
// order is arrival order; when full, the oldest entry is evicted. Ingest
// is idempotent on message ID, which is what makes the backfill/live race
// safe without any blocking.
type Buffer struct {
	mu         sync.Mutex
	capacity   int
	classifier *channels.Classifier
	entries    []*types.Message
	byID       map[types.MessageID]struct{}
}

// Stats summarises buffer occupancy.
type Stats struct {
	Size     int
	Capacity int
}

// New creates a Buffer with the given capacity, consulting the classifier
// on every ingest. Capacities below 1 are clamped to 1.
func New(capacity int, classifier *channels.Classifier) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		capacity:   capacity,
		classifier: classifier,
		byID:       make(map[types.MessageID]struct{}, capacity),
	}
}

// Ingest adds a message to the buffer. Messages from non-context channels
// and messages whose ID is already present are silently dropped; both are
// no-ops, not errors. Returns true if the message was stored.
func (b *Buffer) Ingest(msg *types.Message) bool {
	if msg == nil || b.classifier.Classify(msg.ChannelID) != channels.RoleContext {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, dup := b.byID[msg.ID]; dup {
		return false
	}

	if len(b.entries) >= b.capacity {
		oldest := b.entries[0]
		delete(b.byID, oldest.ID)
		b.entries = b.entries[1:]
	}

	b.entries = append(b.entries, msg)
	b.byID[msg.ID] = struct{}{}
	return true
}

// Recent returns up to limit of the most recent messages in chronological
// order, optionally restricted to the given channels. A fresh slice is
// returned; the buffer is never mutated.
func (b *Buffer) Recent(limit int, only ...types.ChannelID) []*types.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	matched := b.entries
	if len(only) > 0 {
		wanted := make(map[types.ChannelID]struct{}, len(only))
		for _, id := range only {
			wanted[id] = struct{}{}
		}
		matched = make([]*types.Message, 0, len(b.entries))
		for _, msg := range b.entries {
			if _, ok := wanted[msg.ChannelID]; ok {
				matched = append(matched, msg)
			}
		}
	}

	if limit >= 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}

	out := make([]*types.Message, len(matched))
	copy(out, matched)
	return out
}

// Search returns up to limit messages whose content contains query,
// case-insensitively, newest first.
func (b *Buffer) Search(query string, limit int) []*types.Message {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*types.Message
	for i := len(b.entries) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(b.entries[i].Content), needle) {
			out = append(out, b.entries[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// ByAuthor returns up to limit messages by the given author, newest first.
func (b *Buffer) ByAuthor(author string, limit int) []*types.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*types.Message
	for i := len(b.entries) - 1; i >= 0; i-- {
		if b.entries[i].Author == author {
			out = append(out, b.entries[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Len returns the number of buffered messages.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Clear removes all buffered messages.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
	b.byID = make(map[types.MessageID]struct{}, b.capacity)
}

// Stats returns current occupancy.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Size: len(b.entries), Capacity: b.capacity}
}
