package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/user/taskwing/internal/types"
)

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	g := New(filepath.Join(dir, "records.json"))

	snap, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Tasks) != 0 || len(snap.Notes) != 0 {
		t.Errorf("expected empty snapshot, got %d tasks %d notes", len(snap.Tasks), len(snap.Notes))
	}
	if snap.NextTaskID != 1 || snap.NextNoteID != 1 {
		t.Errorf("expected counters at 1, got %d/%d", snap.NextTaskID, snap.NextNoteID)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := New(filepath.Join(dir, "records.json"))

	now := time.Now().Truncate(time.Second)
	snap := &types.Snapshot{
		Tasks: []*types.Task{{
			ID:        1,
			Title:     "write report",
			Status:    types.TaskOpen,
			Priority:  types.PriorityHigh,
			CreatedAt: now,
			UpdatedAt: now,
		}},
		Notes: []*types.Note{{
			ID:        1,
			Title:     "meeting",
			Content:   "roadmap discussion",
			Tags:      []string{"work"},
			CreatedAt: now,
		}},
		NextTaskID: 2,
		NextNoteID: 2,
	}

	if err := g.Save(snap); err != nil {
		t.Fatal(err)
	}

	got, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Title != "write report" {
		t.Errorf("task did not round-trip: %+v", got.Tasks)
	}
	if got.Tasks[0].Priority != types.PriorityHigh {
		t.Errorf("expected high priority, got %s", got.Tasks[0].Priority)
	}
	if len(got.Notes) != 1 || got.Notes[0].Tags[0] != "work" {
		t.Errorf("note did not round-trip: %+v", got.Notes)
	}
	if got.NextTaskID != 2 || got.NextNoteID != 2 {
		t.Errorf("counters did not round-trip: %d/%d", got.NextTaskID, got.NextNoteID)
	}
}

func TestSaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	g := New(filepath.Join(dir, "records.json"))

	first := types.EmptySnapshot()
	first.Tasks = []*types.Task{{ID: 1, Title: "old", Status: types.TaskOpen, Priority: types.PriorityMedium}}
	first.NextTaskID = 2
	if err := g.Save(first); err != nil {
		t.Fatal(err)
	}

	second := types.EmptySnapshot()
	second.Tasks = []*types.Task{{ID: 2, Title: "new", Status: types.TaskOpen, Priority: types.PriorityMedium}}
	second.NextTaskID = 3
	if err := g.Save(second); err != nil {
		t.Fatal(err)
	}

	got, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Title != "new" {
		t.Errorf("expected latest snapshot, got %+v", got.Tasks)
	}
}

func TestCrashMidSaveLeavesPriorSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	g := New(path)

	snap := types.EmptySnapshot()
	snap.Tasks = []*types.Task{{ID: 1, Title: "survivor", Status: types.TaskOpen, Priority: types.PriorityMedium}}
	snap.NextTaskID = 2
	if err := g.Save(snap); err != nil {
		t.Fatal(err)
	}

	// Simulate a crash between writing the temp file and the rename.
	if err := os.WriteFile(path+".tmp", []byte("{\"tasks\": [garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Title != "survivor" {
		t.Errorf("expected prior snapshot to survive, got %+v", got.Tasks)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := New(path)
	if _, err := g.Load(); err == nil {
		t.Fatal("expected error for malformed snapshot")
	}
}

func TestLoadNormalizesOldDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")

	// A document written before the priority field existed, with nil
	// collections and zero counters.
	doc := `{"tasks": [{"id": 1, "title": "legacy", "status": "open"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	g := New(path)
	got, err := g.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.Tasks[0].Priority != types.PriorityMedium {
		t.Errorf("expected defaulted medium priority, got %q", got.Tasks[0].Priority)
	}
	if got.Notes == nil {
		t.Error("expected notes normalized to empty slice")
	}
	if got.NextTaskID != 1 || got.NextNoteID != 1 {
		t.Errorf("expected counters normalized to 1, got %d/%d", got.NextTaskID, got.NextNoteID)
	}
}

func TestSaveCreatesDataDir(t *testing.T) {
	dir := t.TempDir()
	g := New(filepath.Join(dir, "nested", "deeper", "records.json"))

	if err := g.Save(types.EmptySnapshot()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(g.Path()); err != nil {
		t.Errorf("expected snapshot file to exist: %v", err)
	}
}

func TestConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	g := New(path)

	// Autosave, the save command, and the shutdown flush can all call
	// Save at once; the file must always parse afterwards.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			snap := types.EmptySnapshot()
			snap.Tasks = []*types.Task{{
				ID:       n + 1,
				Title:    fmt.Sprintf("task %d", n),
				Status:   types.TaskOpen,
				Priority: types.PriorityMedium,
			}}
			snap.NextTaskID = n + 2
			if err := g.Save(snap); err != nil {
				t.Errorf("save %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := g.Load()
	if err != nil {
		t.Fatalf("load after concurrent saves: %v", err)
	}
	if len(got.Tasks) != 1 {
		t.Errorf("expected one complete snapshot, got %d tasks", len(got.Tasks))
	}
	if got.NextTaskID != got.Tasks[0].ID+1 {
		t.Errorf("snapshot torn: counter %d does not match task %d", got.NextTaskID, got.Tasks[0].ID)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected no temp file left behind")
	}
}

func TestNoTempFileAfterSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	g := New(path)

	if err := g.Save(types.EmptySnapshot()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected temp file to be gone after save")
	}
}
