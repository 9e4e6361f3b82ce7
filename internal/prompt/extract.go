// internal/prompt/extract.go
package prompt

import (
	"fmt"
	"strings"

	"github.com/user/taskwing/internal/types"
	"github.com/user/taskwing/pkg/llm"
)

// TaskDraft holds task fields extracted from free text.
type TaskDraft struct {
	Title       string
	Description string
	Priority    types.Priority
}

// NoteDraft holds note fields extracted from free text.
type NoteDraft struct {
	Title   string
	Content string
	Tags    []string
}

// BuildTaskExtraction asks the model to pull task fields out of free text
// using a fixed line protocol that ParseTaskDraft understands.
func (e *Engine) BuildTaskExtraction(text string) []llm.Message {
	return []llm.Message{
		{Role: "user", Content: fmt.Sprintf(`Extract task information from the following text and return it in this exact format:
TITLE: <task title>
DESCRIPTION: <task description>
PRIORITY: <low/medium/high>

Text: %s

Only return the formatted information, nothing else.`, text)},
	}
}

// BuildNoteExtraction is the note counterpart of BuildTaskExtraction.
func (e *Engine) BuildNoteExtraction(text string) []llm.Message {
	return []llm.Message{
		{Role: "user", Content: fmt.Sprintf(`Extract note information from the following text and return it in this exact format:
TITLE: <note title>
CONTENT: <note content>
TAGS: <comma-separated tags if any, otherwise "none">

Text: %s

Only return the formatted information, nothing else.`, text)},
	}
}

// ParseTaskDraft parses a TITLE/DESCRIPTION/PRIORITY response. Returns
// false when no title could be extracted.
func ParseTaskDraft(response string) (*TaskDraft, bool) {
	draft := &TaskDraft{Priority: types.PriorityMedium}
	for _, line := range strings.Split(response, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "title":
			draft.Title = value
		case "description":
			draft.Description = value
		case "priority":
			draft.Priority = types.ParsePriority(value)
		}
	}
	if draft.Title == "" {
		return nil, false
	}
	return draft, true
}

// ParseNoteDraft parses a TITLE/CONTENT/TAGS response. Returns false when
// no title could be extracted.
func ParseNoteDraft(response string) (*NoteDraft, bool) {
	draft := &NoteDraft{}
	for _, line := range strings.Split(response, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "title":
			draft.Title = value
		case "content":
			draft.Content = value
		case "tags":
			if !strings.EqualFold(value, "none") {
				for _, tag := range strings.Split(value, ",") {
					if tag = strings.TrimSpace(tag); tag != "" {
						draft.Tags = append(draft.Tags, tag)
					}
				}
			}
		}
	}
	if draft.Title == "" {
		return nil, false
	}
	return draft, true
}
