package predictor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/newthinker/quantbench/internal/core"
	"github.com/newthinker/quantbench/internal/llm"
)

const llmSystemPrompt = `You are a short-horizon price direction classifier.
You receive one observation of named numeric features for a single stock.
Answer with exactly one character: 1 if the next close is more likely to be higher, 0 otherwise.`

// LLM asks a language model for the label. The reply must parse as an integer;
// range checking is left to the caller.
type LLM struct {
	completer   llm.Completer
	temperature float64
}

// NewLLM creates an LLM-backed predictor
func NewLLM(c llm.Completer) *LLM {
	return &LLM{completer: c}
}

// Predict formats the features into a prompt and parses the reply.
func (p *LLM) Predict(ctx context.Context, features core.FeatureVector) (int, error) {
	resp, err := p.completer.Complete(ctx, llm.Request{
		System:      llmSystemPrompt,
		Prompt:      formatFeatures(features),
		MaxTokens:   llm.DefaultMaxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", p.completer.Name(), err)
	}
	return parseLabel(resp.Text)
}

func formatFeatures(features core.FeatureVector) string {
	var b strings.Builder
	b.WriteString("Features:\n")
	for i, v := range features.Values {
		name := fmt.Sprintf("f%d", i)
		if i < len(features.Names) {
			name = features.Names[i]
		}
		fmt.Fprintf(&b, "%s=%s\n", name, strconv.FormatFloat(v, 'f', -1, 64))
	}
	b.WriteString("Label:")
	return b.String()
}

// parseLabel accepts replies such as "1", " 0\n" or "1." and returns the integer.
func parseLabel(text string) (int, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty model reply")
	}
	token := strings.TrimRight(fields[0], ".,;:")
	label, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("unparseable model reply %q", text)
	}
	return label, nil
}
