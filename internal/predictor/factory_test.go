package predictor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/quantbench/internal/config"
	"github.com/newthinker/quantbench/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFactory_Constant(t *testing.T) {
	f, err := NewFactory(config.PredictorConfig{Type: "constant", Label: 0})
	require.NoError(t, err)

	p, err := f()
	require.NoError(t, err)
	label, _ := p.Predict(context.Background(), core.FeatureVector{})
	assert.Equal(t, 0, label)
}

func TestNewFactory_Logistic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(momentumModel), 0644))

	f, err := NewFactory(config.PredictorConfig{Type: "logistic", ModelPath: path})
	require.NoError(t, err)

	p, err := f()
	require.NoError(t, err)
	_, ok := p.(Schema)
	assert.True(t, ok, "logistic predictor exposes its schema")
}

func TestNewFactory_LLM(t *testing.T) {
	f, err := NewFactory(config.PredictorConfig{
		Type: "llm",
		LLM:  config.LLMConfig{Provider: "ollama", Endpoint: "http://localhost:11434"},
	})
	require.NoError(t, err)

	p, err := f()
	require.NoError(t, err)
	assert.IsType(t, &LLM{}, p)
}

func TestNewFactory_Errors(t *testing.T) {
	tests := []config.PredictorConfig{
		{Type: "logistic", ModelPath: "/nonexistent/model.yaml"},
		{Type: "llm", LLM: config.LLMConfig{Provider: "claude"}},
		{Type: "xgboost"},
	}
	for _, cfg := range tests {
		_, err := NewFactory(cfg)
		if !errors.Is(err, core.ErrPredictorFailed) {
			t.Errorf("NewFactory(%s) error = %v, want PREDICTOR_FAILED", cfg.Type, err)
		}
	}
}
