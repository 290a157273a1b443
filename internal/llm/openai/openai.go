// internal/llm/openai/openai.go
package openai

import (
	"context"
	"fmt"

	"github.com/newthinker/quantbench/internal/llm"
	"github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o"

// Provider completes prompts with the OpenAI chat completions API.
type Provider struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI provider. A non-empty baseURL targets an
// OpenAI-compatible server.
func New(apiKey, model, baseURL string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	if model == "" {
		model = defaultModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Provider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Complete sends the system prompt and the user prompt as one chat completion.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	return &llm.Response{
		Text: text,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
