// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/quantbench/internal/config"
	"github.com/newthinker/quantbench/internal/llm"
	"github.com/newthinker/quantbench/internal/llm/claude"
	"github.com/newthinker/quantbench/internal/llm/ollama"
	"github.com/newthinker/quantbench/internal/llm/openai"
)

// New creates a rate-limited LLM completer based on configuration.
func New(cfg config.LLMConfig) (llm.Completer, error) {
	var (
		c   llm.Completer
		err error
	)

	switch cfg.Provider {
	case "claude":
		c, err = claude.New(cfg.APIKey, cfg.Model)
	case "openai":
		c, err = openai.New(cfg.APIKey, cfg.Model, cfg.Endpoint)
	case "ollama":
		c, err = ollama.New(cfg.Endpoint, cfg.Model, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return llm.Throttle(c, cfg.RequestsPerSecond), nil
}
