// internal/types/models.go
package types

import (
	"strings"
	"time"
)

// Message is a single chat message captured from a context channel.
// Identity is the source-assigned ID; messages are immutable once stored.
type Message struct {
	ID        MessageID `json:"id"`
	ChannelID ChannelID `json:"channel_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	At        time.Time `json:"at"`
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

// ParseTaskStatus maps user input to a TaskStatus. Returns false for
// anything that is not a known status.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(strings.ToLower(strings.TrimSpace(s))) {
	case TaskOpen:
		return TaskOpen, true
	case TaskDone:
		return TaskDone, true
	}
	return "", false
}

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps user input to a Priority, defaulting to medium for
// empty or unrecognized values.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Task is a user-created work item with a sequential ID.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Note is a user-created note with a sequential ID and optional tags.
type Note struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the complete persisted state of the record store.
// Invariant: NextTaskID is strictly greater than every task ID, and
// NextNoteID strictly greater than every note ID. IDs are never reused.
type Snapshot struct {
	Tasks      []*Task `json:"tasks"`
	Notes      []*Note `json:"notes"`
	NextTaskID int     `json:"next_task_id"`
	NextNoteID int     `json:"next_note_id"`
}

// EmptySnapshot returns the cold-start state: no records, counters at 1.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Tasks:      []*Task{},
		Notes:      []*Note{},
		NextTaskID: 1,
		NextNoteID: 1,
	}
}
