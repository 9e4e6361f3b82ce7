// Package persist provides durable snapshot I/O for the record store.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/taskwing/internal/types"
)

// Gateway reads and writes the record-store snapshot as a single JSON
// document. Writes go to a temp file followed by an atomic rename, so a
// crash mid-save never leaves a torn file for the next Load. Saves are
// serialized: the autosave tick, the save command, and the shutdown
// flush can all fire at once, and overlapping writers sharing one temp
// path would break the rename guarantee.
type Gateway struct {
	mu   sync.Mutex
	path string
}

// New creates a Gateway writing to the given file path.
func New(path string) *Gateway {
	return &Gateway{path: path}
}

// Path returns the snapshot file path.
func (g *Gateway) Path() string {
	return g.path
}

// Load reads the persisted snapshot. A missing file is a cold start, not
// an error: it yields an empty snapshot with counters at 1. Malformed
// content is an error; the caller logs it and falls back to empty state.
func (g *Gateway) Load() (*types.Snapshot, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.EmptySnapshot(), nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if snap.Tasks == nil {
		snap.Tasks = []*types.Task{}
	}
	if snap.Notes == nil {
		snap.Notes = []*types.Note{}
	}
	if snap.NextTaskID < 1 {
		snap.NextTaskID = 1
	}
	if snap.NextNoteID < 1 {
		snap.NextNoteID = 1
	}
	// Documents written before the priority field existed default it here.
	for _, task := range snap.Tasks {
		if task.Priority == "" {
			task.Priority = types.PriorityMedium
		}
	}
	return &snap, nil
}

// Save writes the snapshot atomically: marshal, write to a temp file in
// the same directory, rename over the target. In-place truncation is
// never used.
func (g *Gateway) Save(snap *types.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// Atomic write: write to temp file then rename
	tmp := g.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, g.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp snapshot: %w", err)
	}
	return nil
}
