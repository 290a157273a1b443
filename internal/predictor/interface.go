package predictor

import (
	"context"
	"fmt"
	"sync"

	"github.com/newthinker/quantbench/internal/core"
)

// Predictor is the inference port the backtester calls once per tradeable bar.
// It returns a binary label: core.LabelUp (1) or core.LabelDown (0).
type Predictor interface {
	Predict(ctx context.Context, features core.FeatureVector) (int, error)
}

// Schema is implemented by predictors that know the feature layout they were
// trained with. The backtester compares it against the vector it builds.
type Schema interface {
	FeatureNames() []string
}

// Factory builds a fresh predictor for one run, so stateful predictors are
// never shared across concurrent backtests.
type Factory func() (Predictor, error)

// Shared returns a Factory that hands out the same stateless predictor every time.
func Shared(p Predictor) Factory {
	return func() (Predictor, error) { return p, nil }
}

// Func adapts a plain function to the Predictor interface
type Func func(ctx context.Context, features core.FeatureVector) (int, error)

// Predict calls f.
func (f Func) Predict(ctx context.Context, features core.FeatureVector) (int, error) {
	return f(ctx, features)
}

// Constant always returns the same label
type Constant int

// Predict returns the constant label.
func (c Constant) Predict(context.Context, core.FeatureVector) (int, error) {
	return int(c), nil
}

// Sequence replays a scripted list of labels, one per call. After the script is
// exhausted it keeps returning the last label. It is stateful: build one per run.
type Sequence struct {
	mu     sync.Mutex
	labels []int
	next   int
}

// NewSequence creates a Sequence over labels
func NewSequence(labels ...int) *Sequence {
	return &Sequence{labels: labels}
}

// Predict returns the next scripted label.
func (s *Sequence) Predict(context.Context, core.FeatureVector) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.labels) == 0 {
		return 0, fmt.Errorf("empty label sequence")
	}
	idx := s.next
	if idx >= len(s.labels) {
		idx = len(s.labels) - 1
	} else {
		s.next++
	}
	return s.labels[idx], nil
}

// IsBinary reports whether label is one of the two accepted values
func IsBinary(label int) bool {
	return label == core.LabelDown || label == core.LabelUp
}
