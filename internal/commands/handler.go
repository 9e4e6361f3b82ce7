// internal/commands/handler.go
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/user/taskwing/internal/buffer"
	"github.com/user/taskwing/internal/channels"
	"github.com/user/taskwing/internal/prompt"
	"github.com/user/taskwing/internal/store"
	"github.com/user/taskwing/internal/types"
	"github.com/user/taskwing/pkg/llm"
)

const (
	defaultAskContext = 50
	maxListed         = 10
)

// Handler maps parsed commands onto the core components and renders each
// result or error as a user-visible reply. Nothing here is fatal: every
// error branch becomes a reply string.
type Handler struct {
	Store      *store.Store
	Buffer     *buffer.Buffer
	Classifier *channels.Classifier
	Engine     *prompt.Engine
	Provider   llm.Provider
	Clipper    *Clipper

	// Save flushes the record store to disk. Nil when persistence is
	// disabled.
	Save func() error
}

// Handle executes a single command and returns the reply text.
func (h *Handler) Handle(ctx context.Context, cmd *Command) string {
	switch cmd.Name {
	case "help", "commands":
		return helpText
	case "task":
		return h.handleTask(ctx, cmd)
	case "note":
		return h.handleNote(ctx, cmd)
	case "ask":
		return h.handleAsk(ctx, cmd.Rest)
	case "summarize":
		return h.handleSummarize(ctx, cmd.Rest)
	case "analyze":
		return h.handleAnalyze(ctx, cmd)
	case "clip":
		return h.handleClip(ctx, cmd.Rest)
	case "stats":
		return h.handleStats()
	case "save":
		return h.handleSave()
	case "monitor":
		return h.handleMonitor(cmd.Rest)
	default:
		return fmt.Sprintf("Unknown command %q. Try `help`.", cmd.Name)
	}
}

func (h *Handler) handleTask(ctx context.Context, cmd *Command) string {
	switch cmd.Sub {
	case "add":
		title, description, priority := splitTaskFields(cmd.Rest)
		task, err := h.Store.AddTask(title, description, types.ParsePriority(priority))
		if err != nil {
			return userError(err)
		}
		return fmt.Sprintf("Task #%d created: *%s* (priority %s)", task.ID, task.Title, task.Priority)

	case "list":
		var status types.TaskStatus
		if cmd.Rest != "" {
			parsed, ok := types.ParseTaskStatus(cmd.Rest)
			if !ok {
				return fmt.Sprintf("Unknown status %q. Use open or done.", cmd.Rest)
			}
			status = parsed
		}
		tasks := h.Store.ListTasks(status)
		if len(tasks) == 0 {
			return "No tasks found."
		}
		return formatTasks(tasks)

	case "done":
		id, err := parseID(cmd.Rest)
		if err != nil {
			return userError(err)
		}
		if _, err := h.Store.SetTaskStatus(id, types.TaskDone); err != nil {
			return userError(err)
		}
		return fmt.Sprintf("Task #%d marked as done.", id)

	case "delete":
		id, err := parseID(cmd.Rest)
		if err != nil {
			return userError(err)
		}
		if err := h.Store.DeleteTask(id); err != nil {
			return userError(err)
		}
		return fmt.Sprintf("Task #%d deleted.", id)

	case "search":
		tasks := h.Store.SearchTasks(cmd.Rest)
		if len(tasks) == 0 {
			return fmt.Sprintf("No tasks matching %q.", cmd.Rest)
		}
		return formatTasks(tasks)

	case "smart":
		return h.handleTaskSmart(ctx, cmd.Rest)

	default:
		return "Use `task add <title> | <description> | <priority>`, `task list [status]`, `task done <id>`, `task delete <id>`, `task search <query>`, or `task smart <text>`."
	}
}

func (h *Handler) handleNote(ctx context.Context, cmd *Command) string {
	switch cmd.Sub {
	case "add":
		title, content := splitTitleBody(cmd.Rest)
		note, err := h.Store.AddNote(title, content, nil)
		if err != nil {
			return userError(err)
		}
		return fmt.Sprintf("Note #%d created: *%s*", note.ID, note.Title)

	case "list":
		notes := h.Store.ListNotes()
		if len(notes) == 0 {
			return "No notes found."
		}
		return formatNotes(notes)

	case "search":
		notes := h.Store.SearchNotes(cmd.Rest)
		if len(notes) == 0 {
			return fmt.Sprintf("No notes matching %q.", cmd.Rest)
		}
		return formatNotes(notes)

	case "delete":
		id, err := parseID(cmd.Rest)
		if err != nil {
			return userError(err)
		}
		if err := h.Store.DeleteNote(id); err != nil {
			return userError(err)
		}
		return fmt.Sprintf("Note #%d deleted.", id)

	case "smart":
		return h.handleNoteSmart(ctx, cmd.Rest)

	default:
		return "Use `note add <title> | <content>`, `note list`, `note search <query>`, `note delete <id>`, or `note smart <text>`."
	}
}

func (h *Handler) handleAsk(ctx context.Context, question string) string {
	if question == "" {
		return "Ask what? Usage: `ask <question>`."
	}
	recent := h.Buffer.Recent(defaultAskContext)
	resp, err := h.Provider.Complete(ctx, h.Engine.BuildAsk(question, recent))
	if err != nil {
		slog.Error("completion failed", "command", "ask", "error", err)
		return "AI call failed, please try again later."
	}
	return resp.Content
}

func (h *Handler) handleSummarize(ctx context.Context, rest string) string {
	limit := defaultAskContext
	if rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return "Usage: `summarize [count]`."
		}
		limit = n
	}
	messages := h.Buffer.Recent(limit)
	if len(messages) == 0 {
		return "No messages to summarize."
	}
	resp, err := h.Provider.Complete(ctx, h.Engine.BuildSummary(messages))
	if err != nil {
		slog.Error("completion failed", "command", "summarize", "error", err)
		return "AI call failed, please try again later."
	}
	return fmt.Sprintf("*Summary of last %d messages:*\n\n%s", len(messages), resp.Content)
}

func (h *Handler) handleAnalyze(ctx context.Context, cmd *Command) string {
	switch cmd.Sub {
	case "tasks":
		tasks := h.Store.ListTasks("")
		if len(tasks) == 0 {
			return "No tasks found to analyze."
		}
		resp, err := h.Provider.Complete(ctx,
			h.Engine.BuildTaskAnalysis(tasks, "Provide an overview and insights about these tasks."))
		if err != nil {
			slog.Error("completion failed", "command", "analyze tasks", "error", err)
			return "AI call failed, please try again later."
		}
		return "*Task Analysis:*\n\n" + resp.Content

	case "notes":
		notes := h.Store.ListNotes()
		if len(notes) == 0 {
			return "No notes found to analyze."
		}
		resp, err := h.Provider.Complete(ctx,
			h.Engine.BuildNoteAnalysis(notes, "Provide an overview and insights about these notes."))
		if err != nil {
			slog.Error("completion failed", "command", "analyze notes", "error", err)
			return "AI call failed, please try again later."
		}
		return "*Note Analysis:*\n\n" + resp.Content

	default:
		return "Please specify `analyze tasks` or `analyze notes`."
	}
}

func (h *Handler) handleTaskSmart(ctx context.Context, text string) string {
	if text == "" {
		return "Usage: `task smart <describe the task in plain words>`."
	}
	resp, err := h.Provider.Complete(ctx, h.Engine.BuildTaskExtraction(text))
	if err != nil {
		slog.Error("completion failed", "command", "task smart", "error", err)
		return "AI call failed, please try again later."
	}
	draft, ok := prompt.ParseTaskDraft(resp.Content)
	if !ok {
		return "Couldn't extract a task from that. Try `task add <title> | <description>`."
	}
	task, err := h.Store.AddTask(draft.Title, draft.Description, draft.Priority)
	if err != nil {
		return userError(err)
	}
	return fmt.Sprintf("Task #%d created: *%s* (priority %s)", task.ID, task.Title, task.Priority)
}

func (h *Handler) handleNoteSmart(ctx context.Context, text string) string {
	if text == "" {
		return "Usage: `note smart <describe the note in plain words>`."
	}
	resp, err := h.Provider.Complete(ctx, h.Engine.BuildNoteExtraction(text))
	if err != nil {
		slog.Error("completion failed", "command", "note smart", "error", err)
		return "AI call failed, please try again later."
	}
	draft, ok := prompt.ParseNoteDraft(resp.Content)
	if !ok {
		return "Couldn't extract a note from that. Try `note add <title> | <content>`."
	}
	note, err := h.Store.AddNote(draft.Title, draft.Content, draft.Tags)
	if err != nil {
		return userError(err)
	}
	return fmt.Sprintf("Note #%d created: *%s*", note.ID, note.Title)
}

func (h *Handler) handleClip(ctx context.Context, rawURL string) string {
	if rawURL == "" {
		return "Usage: `clip <url>`."
	}
	if h.Clipper == nil {
		return "Clipping is not available."
	}
	title, content, err := h.Clipper.Fetch(ctx, rawURL)
	if err != nil {
		slog.Error("clip failed", "url", rawURL, "error", err)
		return "Couldn't fetch that page."
	}
	note, err := h.Store.AddNote(title, content, []string{"clip"})
	if err != nil {
		return userError(err)
	}
	return fmt.Sprintf("Note #%d clipped: *%s*", note.ID, note.Title)
}

func (h *Handler) handleStats() string {
	bs := h.Buffer.Stats()
	ss := h.Store.Stats()
	return fmt.Sprintf(
		"*Buffer:* %d/%d messages, %d context channels\n*Tasks:* %d total (%d open, %d done)\n*Notes:* %d",
		bs.Size, bs.Capacity, len(h.Classifier.ContextChannels()),
		ss.TasksTotal, ss.TasksOpen, ss.TasksDone, ss.Notes)
}

func (h *Handler) handleSave() string {
	if h.Save == nil {
		return "Persistence is not enabled."
	}
	if err := h.Save(); err != nil {
		slog.Error("manual save failed", "error", err)
		return "Save failed; in-memory state is intact and the next scheduled save will retry."
	}
	return "Data saved."
}

func (h *Handler) handleMonitor(rest string) string {
	id, err := parseID(rest)
	if err != nil {
		return "Usage: `monitor <channel_id>`."
	}
	h.Classifier.Monitor(types.ChannelID(id))
	return fmt.Sprintf("Now monitoring channel %d as a context channel.", id)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid id: %w", s, store.ErrValidation)
	}
	return id, nil
}

// userError maps core errors to replies. Validation and not-found errors
// surface as-is; anything else gets a generic message and a log line.
func userError(err error) string {
	switch {
	case errors.Is(err, store.ErrValidation):
		return "Invalid input: " + strings.TrimSuffix(err.Error(), ": "+store.ErrValidation.Error())
	case errors.Is(err, store.ErrNotFound):
		return "Not found: " + strings.TrimSuffix(err.Error(), ": "+store.ErrNotFound.Error())
	default:
		slog.Error("command failed", "error", err)
		return "Something went wrong handling that command."
	}
}

func formatTasks(tasks []*types.Task) string {
	var sb strings.Builder
	for i, t := range tasks {
		if i == maxListed {
			fmt.Fprintf(&sb, "…and %d more.\n", len(tasks)-maxListed)
			break
		}
		marker := "·"
		if t.Status == types.TaskDone {
			marker = "✓"
		}
		fmt.Fprintf(&sb, "%s #%d *%s* [%s]", marker, t.ID, t.Title, t.Priority)
		if t.Description != "" {
			fmt.Fprintf(&sb, " — %s", truncate(t.Description, 100))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatNotes(notes []*types.Note) string {
	var sb strings.Builder
	for i, n := range notes {
		if i == maxListed {
			fmt.Fprintf(&sb, "…and %d more.\n", len(notes)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "#%d *%s* — %s", n.ID, n.Title, truncate(n.Content, 100))
		if len(n.Tags) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(n.Tags, ", "))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

const helpText = `*Taskwing commands*

*Tasks*
` + "`task add <title> | <description> | <priority>`" + ` — add a task (description and priority optional)
` + "`task list [open|done]`" + ` — list tasks
` + "`task done <id>`" + ` — mark a task done
` + "`task delete <id>`" + ` — delete a task
` + "`task search <query>`" + ` — search tasks
` + "`task smart <text>`" + ` — create a task from plain words

*Notes*
` + "`note add <title> | <content>`" + ` — add a note
` + "`note list`" + ` — list notes
` + "`note search <query>`" + ` — search notes
` + "`note delete <id>`" + ` — delete a note
` + "`note smart <text>`" + ` — create a note from plain words
` + "`clip <url>`" + ` — save a web page as a note

*AI*
` + "`ask <question>`" + ` — ask with recent channel context
` + "`summarize [count]`" + ` — summarize recent messages
` + "`analyze tasks|notes`" + ` — insights over your records

*Utility*
` + "`stats`" + ` — buffer and store statistics
` + "`save`" + ` — save data now
` + "`monitor <channel_id>`" + ` — add a context channel`
