// internal/llm/claude/claude_test.go
package claude

import (
	"testing"

	"github.com/newthinker/quantbench/internal/llm"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.Completer = (*Provider)(nil)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("", "model")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("test-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model != defaultModel {
		t.Errorf("model = %s, want %s", p.model, defaultModel)
	}
	if p.Name() != "claude" {
		t.Errorf("Name() = %s", p.Name())
	}
}
