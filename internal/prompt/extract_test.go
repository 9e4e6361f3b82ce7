package prompt

import (
	"strings"
	"testing"

	"github.com/user/taskwing/internal/types"
)

func TestParseTaskDraft(t *testing.T) {
	response := `TITLE: Buy groceries
DESCRIPTION: Milk, eggs, and bread
PRIORITY: high`

	draft, ok := ParseTaskDraft(response)
	if !ok {
		t.Fatal("expected draft to parse")
	}
	if draft.Title != "Buy groceries" {
		t.Errorf("unexpected title %q", draft.Title)
	}
	if draft.Description != "Milk, eggs, and bread" {
		t.Errorf("unexpected description %q", draft.Description)
	}
	if draft.Priority != types.PriorityHigh {
		t.Errorf("unexpected priority %s", draft.Priority)
	}
}

func TestParseTaskDraftDefaults(t *testing.T) {
	draft, ok := ParseTaskDraft("TITLE: just a title")
	if !ok {
		t.Fatal("expected draft to parse")
	}
	if draft.Priority != types.PriorityMedium {
		t.Errorf("expected medium priority default, got %s", draft.Priority)
	}
	if draft.Description != "" {
		t.Errorf("expected empty description, got %q", draft.Description)
	}
}

func TestParseTaskDraftBadPriority(t *testing.T) {
	draft, ok := ParseTaskDraft("TITLE: x\nPRIORITY: urgent!!")
	if !ok {
		t.Fatal("expected draft to parse")
	}
	if draft.Priority != types.PriorityMedium {
		t.Errorf("expected unknown priority to default medium, got %s", draft.Priority)
	}
}

func TestParseTaskDraftNoTitle(t *testing.T) {
	if _, ok := ParseTaskDraft("DESCRIPTION: orphaned"); ok {
		t.Error("expected parse to fail without a title")
	}
	if _, ok := ParseTaskDraft("I could not extract anything."); ok {
		t.Error("expected parse to fail on prose")
	}
}

func TestParseTaskDraftCaseInsensitiveKeys(t *testing.T) {
	draft, ok := ParseTaskDraft("Title: lowercase keys\npriority: LOW")
	if !ok {
		t.Fatal("expected draft to parse")
	}
	if draft.Title != "lowercase keys" {
		t.Errorf("unexpected title %q", draft.Title)
	}
	if draft.Priority != types.PriorityLow {
		t.Errorf("expected low priority, got %s", draft.Priority)
	}
}

func TestParseNoteDraft(t *testing.T) {
	response := `TITLE: Standup notes
CONTENT: Discussed the rollout plan
TAGS: work, rollout`

	draft, ok := ParseNoteDraft(response)
	if !ok {
		t.Fatal("expected draft to parse")
	}
	if draft.Title != "Standup notes" {
		t.Errorf("unexpected title %q", draft.Title)
	}
	if draft.Content != "Discussed the rollout plan" {
		t.Errorf("unexpected content %q", draft.Content)
	}
	if len(draft.Tags) != 2 || draft.Tags[0] != "work" || draft.Tags[1] != "rollout" {
		t.Errorf("unexpected tags %v", draft.Tags)
	}
}

func TestParseNoteDraftNoneTags(t *testing.T) {
	draft, ok := ParseNoteDraft("TITLE: x\nCONTENT: y\nTAGS: none")
	if !ok {
		t.Fatal("expected draft to parse")
	}
	if len(draft.Tags) != 0 {
		t.Errorf("expected no tags for \"none\", got %v", draft.Tags)
	}
}

func TestParseNoteDraftNoTitle(t *testing.T) {
	if _, ok := ParseNoteDraft("CONTENT: orphaned"); ok {
		t.Error("expected parse to fail without a title")
	}
}

func TestBuildTaskExtraction(t *testing.T) {
	e := newTestEngine(t)

	prompt := e.BuildTaskExtraction("remind me to call the dentist tomorrow, it's important")
	if len(prompt) != 1 {
		t.Fatalf("expected 1 message, got %d", len(prompt))
	}
	if !strings.Contains(prompt[0].Content, "TITLE:") || !strings.Contains(prompt[0].Content, "PRIORITY:") {
		t.Error("expected line protocol in extraction prompt")
	}
	if !strings.Contains(prompt[0].Content, "call the dentist") {
		t.Error("expected source text in extraction prompt")
	}
}

func TestBuildNoteExtraction(t *testing.T) {
	e := newTestEngine(t)

	prompt := e.BuildNoteExtraction("jot down that the meeting moved to 3pm")
	if !strings.Contains(prompt[0].Content, "TAGS:") {
		t.Error("expected TAGS field in extraction prompt")
	}
}
