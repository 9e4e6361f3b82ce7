// Package store is the in-memory authoritative state for tasks and notes.
package store

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/user/taskwing/internal/types"
)

// Store owns the task and note collections and their ID counters. All
// operations are atomic with respect to concurrent callers; the counters
// and the collections mutate together, so a reader can never observe a
// record whose ID is at or above the exposed counter.
type Store struct {
	mu         sync.Mutex
	tasks      []*types.Task
	notes      []*types.Note
	nextTaskID int
	nextNoteID int
}

// New creates an empty Store with counters at 1.
func New() *Store {
	return &Store{nextTaskID: 1, nextNoteID: 1}
}

// AddTask creates an open task with the next sequential ID.
func (s *Store) AddTask(title, description string, priority types.Priority) (*types.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("task title is empty: %w", ErrValidation)
	}
	if priority == "" {
		priority = types.PriorityMedium
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	task := &types.Task{
		ID:          s.nextTaskID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      types.TaskOpen,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = append(s.tasks, task)
	s.nextTaskID++
	return copyTask(task), nil
}

// SetTaskStatus moves a task to the given status. Idempotent when the
// status is unchanged.
func (s *Store) SetTaskStatus(id int, status types.TaskStatus) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findTask(id)
	if task == nil {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if task.Status != status {
		task.Status = status
		task.UpdatedAt = time.Now()
	}
	return copyTask(task), nil
}

// DeleteTask removes a task. The ID is not reclaimed.
func (s *Store) DeleteTask(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, task := range s.tasks {
		if task.ID == id {
			s.tasks = slices.Delete(s.tasks, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("task %d: %w", id, ErrNotFound)
}

// ListTasks returns tasks in creation order, optionally filtered by status.
// Pass an empty status for all tasks.
func (s *Store) ListTasks(status types.TaskStatus) []*types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if status == "" || task.Status == status {
			out = append(out, copyTask(task))
		}
	}
	return out
}

// SearchTasks returns tasks whose title or description contains query,
// case-insensitively, in creation order. An empty query matches nothing.
func (s *Store) SearchTasks(query string) []*types.Task {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*types.Task
	for _, task := range s.tasks {
		if strings.Contains(strings.ToLower(task.Title), needle) ||
			strings.Contains(strings.ToLower(task.Description), needle) {
			out = append(out, copyTask(task))
		}
	}
	return out
}

// AddNote creates a note with the next sequential ID.
func (s *Store) AddNote(title, content string, tags []string) (*types.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("note title is empty: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note := &types.Note{
		ID:        s.nextNoteID,
		Title:     strings.TrimSpace(title),
		Content:   content,
		Tags:      normalizeTags(tags),
		CreatedAt: time.Now(),
	}
	s.notes = append(s.notes, note)
	s.nextNoteID++
	return copyNote(note), nil
}

// DeleteNote removes a note. The ID is not reclaimed.
func (s *Store) DeleteNote(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, note := range s.notes {
		if note.ID == id {
			s.notes = slices.Delete(s.notes, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("note %d: %w", id, ErrNotFound)
}

// ListNotes returns all notes in creation order.
func (s *Store) ListNotes() []*types.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Note, 0, len(s.notes))
	for _, note := range s.notes {
		out = append(out, copyNote(note))
	}
	return out
}

// SearchNotes returns notes whose title, content, or any tag contains
// query, case-insensitively, in creation order. An empty query matches
// nothing rather than dumping everything.
func (s *Store) SearchNotes(query string) []*types.Note {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*types.Note
	for _, note := range s.notes {
		if noteMatches(note, needle) {
			out = append(out, copyNote(note))
		}
	}
	return out
}

// Stats reports record counts for the stats command.
type Stats struct {
	TasksTotal int
	TasksOpen  int
	TasksDone  int
	Notes      int
}

// Stats returns counts by status plus the note total.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{TasksTotal: len(s.tasks), Notes: len(s.notes)}
	for _, task := range s.tasks {
		switch task.Status {
		case types.TaskOpen:
			st.TasksOpen++
		case types.TaskDone:
			st.TasksDone++
		}
	}
	return st
}

// Snapshot returns a deep copy of the full store state under a short
// critical section, so persistence I/O never runs while holding the lock.
func (s *Store) Snapshot() *types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &types.Snapshot{
		Tasks:      make([]*types.Task, len(s.tasks)),
		Notes:      make([]*types.Note, len(s.notes)),
		NextTaskID: s.nextTaskID,
		NextNoteID: s.nextNoteID,
	}
	for i, task := range s.tasks {
		snap.Tasks[i] = copyTask(task)
	}
	for i, note := range s.notes {
		snap.Notes[i] = copyNote(note)
	}
	return snap
}

// Restore replaces the store state with the given snapshot. Counters are
// bumped above any record ID so the no-reuse invariant holds even against
// a snapshot with inconsistent counters.
func (s *Store) Restore(snap *types.Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make([]*types.Task, len(snap.Tasks))
	for i, task := range snap.Tasks {
		s.tasks[i] = copyTask(task)
	}
	s.notes = make([]*types.Note, len(snap.Notes))
	for i, note := range snap.Notes {
		s.notes[i] = copyNote(note)
	}

	s.nextTaskID = max(snap.NextTaskID, 1)
	for _, task := range s.tasks {
		if task.ID >= s.nextTaskID {
			s.nextTaskID = task.ID + 1
		}
	}
	s.nextNoteID = max(snap.NextNoteID, 1)
	for _, note := range s.notes {
		if note.ID >= s.nextNoteID {
			s.nextNoteID = note.ID + 1
		}
	}
}

func (s *Store) findTask(id int) *types.Task {
	for _, task := range s.tasks {
		if task.ID == id {
			return task
		}
	}
	return nil
}

func noteMatches(note *types.Note, needle string) bool {
	if strings.Contains(strings.ToLower(note.Title), needle) ||
		strings.Contains(strings.ToLower(note.Content), needle) {
		return true
	}
	for _, tag := range note.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(tag)]; dup {
			continue
		}
		seen[strings.ToLower(tag)] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func copyTask(t *types.Task) *types.Task {
	c := *t
	return &c
}

func copyNote(n *types.Note) *types.Note {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	return &c
}
