package llm

import "context"

// Completer sends a single prompt to a language model and returns its reply
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request holds one completion request
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response holds the model reply
type Response struct {
	Text  string
	Usage Usage
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens caps replies when the request leaves MaxTokens unset
const DefaultMaxTokens = 16
