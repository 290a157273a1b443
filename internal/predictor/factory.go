package predictor

import (
	"fmt"

	"github.com/newthinker/quantbench/internal/config"
	"github.com/newthinker/quantbench/internal/core"
	llmfactory "github.com/newthinker/quantbench/internal/llm/factory"
)

// NewFactory builds the per-run predictor constructor described by cfg. The
// configured predictors are stateless, so one instance is shared.
func NewFactory(cfg config.PredictorConfig) (Factory, error) {
	switch cfg.Type {
	case "", "constant":
		return Shared(Constant(cfg.Label)), nil
	case "logistic":
		m, err := LoadLogistic(cfg.ModelPath)
		if err != nil {
			return nil, core.WrapError(core.ErrPredictorFailed, err)
		}
		return Shared(m), nil
	case "llm":
		c, err := llmfactory.New(cfg.LLM)
		if err != nil {
			return nil, core.WrapError(core.ErrPredictorFailed, err)
		}
		return Shared(NewLLM(c)), nil
	default:
		return nil, core.WrapError(core.ErrPredictorFailed, fmt.Errorf("unknown predictor type: %s", cfg.Type))
	}
}
