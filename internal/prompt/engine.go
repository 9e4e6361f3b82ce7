// Package prompt assembles token-budgeted prompts for the completion
// provider from buffer contents and record-store excerpts.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/taskwing/internal/types"
	"github.com/user/taskwing/pkg/llm"
)

const systemInstruction = `You are Taskwing, a chat assistant that helps users manage tasks, notes, and summarize conversations.

Your capabilities:
- Summarize recent channel messages
- Help manage tasks (create, update, track)
- Help manage notes (create, search, organize)
- Answer questions about conversation history

When responding:
- Be concise and helpful
- Use Markdown formatting
- If searching or summarizing, be specific about what you found`

// Engine builds prompts within a model token budget.
type Engine struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// New creates a prompt engine. maxTokens is the model's context window;
// reserve is held back for the model's response. The tokenizer falls back
// to cl100k_base for models tiktoken doesn't know.
func New(model string, maxTokens, reserve int) (*Engine, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Engine{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

// countTokens returns the token count for a string.
func (e *Engine) countTokens(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}

// FormatMessages renders messages one per line as "[time] author: content",
// dropping the oldest lines when the token budget is exceeded. Output is
// chronological.
func (e *Engine) FormatMessages(messages []*types.Message, budget int) string {
	if len(messages) == 0 {
		return "No recent messages available."
	}

	// Fill newest-first so the freshest context survives the budget,
	// then restore chronological order.
	var lines []string
	used := 0
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		line := fmt.Sprintf("[%s] %s: %s", msg.At.Format(time.DateTime), msg.Author, msg.Content)
		n := e.countTokens(line) + 1
		if used+n > budget {
			break
		}
		lines = append(lines, line)
		used += n
	}

	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}

// BuildAsk assembles the prompt for a free-form question over recent
// channel context.
func (e *Engine) BuildAsk(question string, context []*types.Message) []llm.Message {
	budget := e.contextBudget(question)
	return []llm.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: fmt.Sprintf(
			"--- CONTEXT ---\n%s\n--- END CONTEXT ---\n\nUser Request: %s",
			e.FormatMessages(context, budget), question)},
	}
}

// BuildSummary assembles the prompt for summarizing recent messages.
func (e *Engine) BuildSummary(messages []*types.Message) []llm.Message {
	const request = "Please provide a concise summary of the following conversation."
	budget := e.contextBudget(request)
	return []llm.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: fmt.Sprintf(
			"%s\n\n%s", request, e.FormatMessages(messages, budget))},
	}
}

// BuildTaskAnalysis assembles the prompt for analyzing the task list.
func (e *Engine) BuildTaskAnalysis(tasks []*types.Task, query string) []llm.Message {
	var sb strings.Builder
	sb.WriteString("Current Tasks:\n")
	for _, t := range tasks {
		fmt.Fprintf(&sb, "Task #%d: %s (Status: %s, Priority: %s)\n", t.ID, t.Title, t.Status, t.Priority)
		if t.Description != "" {
			fmt.Fprintf(&sb, "  Description: %s\n", t.Description)
		}
		fmt.Fprintf(&sb, "  Created: %s\n", t.CreatedAt.Format(time.DateTime))
	}
	return []llm.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: sb.String() + "\n" + query},
	}
}

// BuildNoteAnalysis assembles the prompt for analyzing the note list.
func (e *Engine) BuildNoteAnalysis(notes []*types.Note, query string) []llm.Message {
	var sb strings.Builder
	sb.WriteString("Current Notes:\n")
	for _, n := range notes {
		fmt.Fprintf(&sb, "Note #%d: %s\n  Content: %s\n", n.ID, n.Title, n.Content)
		if len(n.Tags) > 0 {
			fmt.Fprintf(&sb, "  Tags: %s\n", strings.Join(n.Tags, ", "))
		}
	}
	return []llm.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: sb.String() + "\n" + query},
	}
}

// contextBudget is the token allowance left for context after the system
// instruction, the request text, and the response reserve.
func (e *Engine) contextBudget(request string) int {
	budget := e.maxTokens - e.reserve - e.countTokens(systemInstruction) - e.countTokens(request) - 64
	if budget < 256 {
		budget = 256
	}
	return budget
}
