package predictor

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/newthinker/quantbench/internal/core"
	"gopkg.in/yaml.v3"
)

// Logistic is a linear classifier: label 1 when
// sigmoid(bias + sum(w_i * (x_i - mean_i) / scale_i)) >= threshold.
// It holds no mutable state and is safe to share across runs.
type Logistic struct {
	Features  []string  `yaml:"features"`
	Weights   []float64 `yaml:"weights"`
	Bias      float64   `yaml:"bias"`
	Threshold float64   `yaml:"threshold"`
	Mean      []float64 `yaml:"mean,omitempty"`  // Optional standardization
	Scale     []float64 `yaml:"scale,omitempty"` // Optional standardization
}

// LoadLogistic reads a model definition from a YAML file
func LoadLogistic(path string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	return ParseLogistic(data)
}

// ParseLogistic decodes and validates a YAML model definition
func ParseLogistic(data []byte) (*Logistic, error) {
	var m Logistic
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if m.Threshold == 0 {
		m.Threshold = 0.5
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the model dimensions
func (m *Logistic) Validate() error {
	n := len(m.Weights)
	if n == 0 {
		return fmt.Errorf("model has no weights")
	}
	if len(m.Features) != 0 && len(m.Features) != n {
		return fmt.Errorf("model has %d features but %d weights", len(m.Features), n)
	}
	if len(m.Mean) != 0 && len(m.Mean) != n {
		return fmt.Errorf("model has %d means but %d weights", len(m.Mean), n)
	}
	if len(m.Scale) != 0 && len(m.Scale) != n {
		return fmt.Errorf("model has %d scales but %d weights", len(m.Scale), n)
	}
	for i, s := range m.Scale {
		if s == 0 {
			return fmt.Errorf("scale %d is zero", i)
		}
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("threshold must be in (0, 1), got %f", m.Threshold)
	}
	return nil
}

// FeatureNames returns the layout the model was fitted on.
func (m *Logistic) FeatureNames() []string {
	return m.Features
}

// Probability returns the modelled probability of an up move
func (m *Logistic) Probability(features core.FeatureVector) (float64, error) {
	if features.Len() != len(m.Weights) {
		return 0, fmt.Errorf("expected %d features, got %d", len(m.Weights), features.Len())
	}

	z := m.Bias
	for i, x := range features.Values {
		if len(m.Mean) > 0 {
			x -= m.Mean[i]
		}
		if len(m.Scale) > 0 {
			x /= m.Scale[i]
		}
		z += m.Weights[i] * x
	}
	if math.IsNaN(z) {
		return 0, fmt.Errorf("non-finite model score")
	}
	return 1 / (1 + math.Exp(-z)), nil
}

// Predict returns 1 when the up probability reaches the threshold.
func (m *Logistic) Predict(_ context.Context, features core.FeatureVector) (int, error) {
	p, err := m.Probability(features)
	if err != nil {
		return 0, err
	}
	if p >= m.Threshold {
		return core.LabelUp, nil
	}
	return core.LabelDown, nil
}
