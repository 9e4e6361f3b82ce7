// Package gemini implements the llm.Provider interface on the Gemini API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/user/taskwing/pkg/llm"
)

// Client is a Gemini-backed completion provider using API-key auth.
type Client struct {
	client *genai.Client
	config *llm.Config
}

// New creates a Gemini client with the given configuration.
func New(ctx context.Context, config *llm.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, config: config}, nil
}

// Complete sends a completion request and returns the full response.
// A leading system message becomes the system instruction; the rest map
// to user/model turns.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	genCfg := &genai.GenerateContentConfig{}
	if c.config.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.config.MaxTokens)
	}
	if c.config.Temperature != 0 {
		genCfg.Temperature = genai.Ptr(c.config.Temperature)
	}

	contents, system, err := convertMessages(messages)
	if err != nil {
		return nil, err
	}
	genCfg.SystemInstruction = system

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	out := &llm.Response{Content: text}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// convertMessages maps provider-neutral messages onto Gemini contents. A
// leading system message becomes the system instruction rather than a turn.
func convertMessages(messages []llm.Message) ([]*genai.Content, *genai.Content, error) {
	var contents []*genai.Content
	var system *genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("no user content in request")
	}
	return contents, system, nil
}
