package gemini

import (
	"testing"

	"google.golang.org/genai"

	"github.com/user/taskwing/pkg/llm"
)

func TestConvertMessages(t *testing.T) {
	contents, system, err := convertMessages([]llm.Message{
		{Role: "system", Content: "you are helpful"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
		{Role: "user", Content: "how are you"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if system == nil || system.Parts[0].Text != "you are helpful" {
		t.Errorf("expected system instruction, got %v", system)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(contents))
	}
	if contents[0].Role != genai.RoleUser {
		t.Errorf("expected user role first, got %s", contents[0].Role)
	}
	if contents[1].Role != genai.RoleModel {
		t.Errorf("expected assistant mapped to model role, got %s", contents[1].Role)
	}
	if contents[2].Parts[0].Text != "how are you" {
		t.Errorf("unexpected text %q", contents[2].Parts[0].Text)
	}
}

func TestConvertMessagesNoUserContent(t *testing.T) {
	if _, _, err := convertMessages([]llm.Message{{Role: "system", Content: "only system"}}); err == nil {
		t.Fatal("expected error without user content")
	}
	if _, _, err := convertMessages(nil); err == nil {
		t.Fatal("expected error for empty messages")
	}
}

func TestConvertMessagesNoSystem(t *testing.T) {
	contents, system, err := convertMessages([]llm.Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatal(err)
	}
	if system != nil {
		t.Error("expected nil system instruction")
	}
	if len(contents) != 1 {
		t.Errorf("expected 1 turn, got %d", len(contents))
	}
}
