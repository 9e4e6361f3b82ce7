package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/user/taskwing/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New("gpt-4", 8000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func testMessages(contents ...string) []*types.Message {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	out := make([]*types.Message, len(contents))
	for i, c := range contents {
		out[i] = &types.Message{
			ID:        types.MessageID(string(rune('a' + i))),
			ChannelID: 100,
			Author:    "alice",
			Content:   c,
			At:        base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestFormatMessagesChronological(t *testing.T) {
	e := newTestEngine(t)
	msgs := testMessages("first", "second", "third")

	got := e.FormatMessages(msgs, 10000)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "first") || !strings.Contains(lines[2], "third") {
		t.Errorf("expected chronological order, got:\n%s", got)
	}
	if !strings.Contains(lines[0], "alice") {
		t.Errorf("expected author in line, got %q", lines[0])
	}
	if !strings.Contains(lines[0], "2026-08-01") {
		t.Errorf("expected timestamp in line, got %q", lines[0])
	}
}

func TestFormatMessagesEmpty(t *testing.T) {
	e := newTestEngine(t)

	got := e.FormatMessages(nil, 1000)
	if got != "No recent messages available." {
		t.Errorf("unexpected placeholder: %q", got)
	}
}

func TestFormatMessagesBudgetDropsOldest(t *testing.T) {
	e := newTestEngine(t)
	msgs := testMessages("oldest message here", "middle message here", "newest message here")

	// Budget enough for roughly one line.
	oneLine := e.countTokens("[2026-08-01 12:02:00] alice: newest message here") + 1
	got := e.FormatMessages(msgs, oneLine)

	if !strings.Contains(got, "newest") {
		t.Errorf("expected newest message to survive budget, got %q", got)
	}
	if strings.Contains(got, "oldest") {
		t.Errorf("expected oldest message dropped, got %q", got)
	}
}

func TestBuildAsk(t *testing.T) {
	e := newTestEngine(t)
	msgs := testMessages("we shipped the release")

	prompt := e.BuildAsk("what happened today?", msgs)
	if len(prompt) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(prompt))
	}
	if prompt[0].Role != "system" {
		t.Errorf("expected system role first, got %s", prompt[0].Role)
	}
	if !strings.Contains(prompt[1].Content, "we shipped the release") {
		t.Error("expected context in user message")
	}
	if !strings.Contains(prompt[1].Content, "User Request: what happened today?") {
		t.Error("expected question in user message")
	}
}

func TestBuildSummary(t *testing.T) {
	e := newTestEngine(t)
	msgs := testMessages("status update one", "status update two")

	prompt := e.BuildSummary(msgs)
	if len(prompt) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(prompt))
	}
	if !strings.Contains(prompt[1].Content, "concise summary") {
		t.Error("expected summary instruction in user message")
	}
	if !strings.Contains(prompt[1].Content, "status update one") {
		t.Error("expected messages in user message")
	}
}

func TestBuildTaskAnalysis(t *testing.T) {
	e := newTestEngine(t)
	tasks := []*types.Task{{
		ID:          3,
		Title:       "ship it",
		Description: "the big one",
		Status:      types.TaskOpen,
		Priority:    types.PriorityHigh,
		CreatedAt:   time.Now(),
	}}

	prompt := e.BuildTaskAnalysis(tasks, "which task first?")
	content := prompt[1].Content
	if !strings.Contains(content, "Task #3: ship it") {
		t.Errorf("expected task line, got %q", content)
	}
	if !strings.Contains(content, "Priority: high") {
		t.Errorf("expected priority, got %q", content)
	}
	if !strings.Contains(content, "which task first?") {
		t.Error("expected query appended")
	}
}

func TestBuildNoteAnalysis(t *testing.T) {
	e := newTestEngine(t)
	notes := []*types.Note{{ID: 2, Title: "ideas", Content: "try the new cache", Tags: []string{"infra"}}}

	prompt := e.BuildNoteAnalysis(notes, "summarize my notes")
	content := prompt[1].Content
	if !strings.Contains(content, "Note #2: ideas") {
		t.Errorf("expected note line, got %q", content)
	}
	if !strings.Contains(content, "Tags: infra") {
		t.Errorf("expected tags line, got %q", content)
	}
}

func TestTokenizerFallback(t *testing.T) {
	// Unknown model names fall back to a generic encoding.
	e, err := New("some-unknown-model-xyz", 8000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if e.countTokens("hello world") == 0 {
		t.Error("expected nonzero token count")
	}
}
