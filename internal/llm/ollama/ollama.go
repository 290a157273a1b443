// internal/llm/ollama/ollama.go
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newthinker/quantbench/internal/llm"
)

const (
	defaultEndpoint = "http://localhost:11434"
	defaultModel    = "qwen2.5:32b"
)

// Provider completes prompts against a local Ollama server.
type Provider struct {
	model  string
	client *resty.Client
}

// New creates a new Ollama provider.
func New(endpoint, model string, timeout time.Duration) (*Provider, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute // local inference can be slow
	}

	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Provider{model: model, client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "ollama"
}

type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// Complete calls the non-streaming /api/generate endpoint.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = llm.DefaultMaxTokens
	}

	var out generateResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:  p.model,
			System: req.System,
			Prompt: req.Prompt,
			Stream: false,
			Options: generateOptions{
				NumPredict:  maxTokens,
				Temperature: req.Temperature,
			},
		}).
		SetResult(&out).
		Post("/api/generate")
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama API returned status %d", resp.StatusCode())
	}

	return &llm.Response{
		Text: out.Response,
		Usage: llm.Usage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
		},
	}, nil
}
