package backtest

import (
	"context"
	"fmt"
	"slices"

	"github.com/newthinker/quantbench/internal/core"
	"github.com/newthinker/quantbench/internal/predictor"
	"go.uber.org/zap"
)

// DefaultLookback matches the feature layout length
const DefaultLookback = 8

// FeatureSource selects how the feature vector is built for each bar
type FeatureSource string

const (
	// FeatureSourceRawCloses feeds the last Lookback closes, oldest first,
	// labelled with core.FeatureNames regardless of what the names say.
	FeatureSourceRawCloses FeatureSource = "raw_closes"
	// FeatureSourceIndicators reads the core.FeatureNames fields of the current bar.
	FeatureSourceIndicators FeatureSource = "indicators"
)

// ParseFeatureSource converts a config string into a FeatureSource
func ParseFeatureSource(s string) (FeatureSource, error) {
	switch FeatureSource(s) {
	case "", FeatureSourceRawCloses:
		return FeatureSourceRawCloses, nil
	case FeatureSourceIndicators:
		return FeatureSourceIndicators, nil
	default:
		return "", fmt.Errorf("unknown feature source: %s", s)
	}
}

// Config controls a backtest run
type Config struct {
	Lookback      int
	FeatureSource FeatureSource
	Sizer         Sizer
	Annualization float64 // Sharpe scaling periods, 1 leaves it per-bar
}

// DefaultConfig returns the raw-close, all-cash, lookback-8 setup
func DefaultConfig() Config {
	return Config{
		Lookback:      DefaultLookback,
		FeatureSource: FeatureSourceRawCloses,
		Sizer:         AllCash{},
		Annualization: 1,
	}
}

// Recorder receives per-trade and per-prediction events
type Recorder interface {
	RecordTrade(action string)
	RecordPrediction(label int)
}

type nopRecorder struct{}

func (nopRecorder) RecordTrade(string)   {}
func (nopRecorder) RecordPrediction(int) {}

// Option configures a Backtester
type Option func(*Backtester)

// WithLogger sets the logger used for trade and warning output
func WithLogger(log *zap.Logger) Option {
	return func(b *Backtester) {
		if log != nil {
			b.log = log
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(b *Backtester) {
		if r != nil {
			b.recorder = r
		}
	}
}

// Backtester replays bars through a predictor and a long/flat strategy
type Backtester struct {
	cfg      Config
	log      *zap.Logger
	recorder Recorder
}

// New creates a new Backtester
func New(cfg Config, opts ...Option) *Backtester {
	if cfg.FeatureSource == "" {
		cfg.FeatureSource = FeatureSourceRawCloses
	}
	if cfg.Sizer == nil {
		cfg.Sizer = AllCash{}
	}
	if cfg.Annualization <= 0 {
		cfg.Annualization = 1
	}
	b := &Backtester{
		cfg:      cfg,
		log:      zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run backtests bars with a default configuration and the given lookback
func Run(ctx context.Context, bars []core.Bar, p predictor.Predictor, initialCash float64, lookback int) (*Result, error) {
	cfg := DefaultConfig()
	cfg.Lookback = lookback
	return New(cfg).Run(ctx, bars, p, initialCash)
}

// Run executes one backtest. State lives only for the duration of the call.
//
// When bars is shorter than the lookback window the returned Result is a flat
// no-trade summary and the error is core.ErrInsufficientData. A predictor
// failure or a label outside {0, 1} aborts the run with core.ErrPrediction and
// no Result.
func (b *Backtester) Run(ctx context.Context, bars []core.Bar, p predictor.Predictor, initialCash float64) (*Result, error) {
	if err := b.validate(bars, p, initialCash); err != nil {
		return nil, err
	}

	lookback := b.cfg.Lookback
	portfolio := NewPortfolio(initialCash, b.cfg.Sizer)
	result := &Result{
		InitialCash: initialCash,
		Lookback:    lookback,
	}
	if len(bars) > 0 {
		result.StartDate = bars[0].Time
		result.EndDate = bars[len(bars)-1].Time
	}

	if len(bars) < lookback {
		result.Summary = Analyze(nil, nil, initialCash, b.cfg.Annualization)
		return result, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("%d bars, lookback %d", len(bars), lookback))
	}

	if w, ok := b.checkSchema(p); !ok {
		b.log.Warn("feature mismatch", zap.String("detail", w.Message))
		result.Warnings = append(result.Warnings, w)
	}

	var equity []EquityPoint
	for i := lookback - 1; i < len(bars); i++ {
		bar := bars[i]

		features, ok := b.features(bars, i)
		if !ok {
			// Indicators still warming up: keep marking an open position
			if portfolio.IsLong() {
				equity = append(equity, EquityPoint{Time: bar.Time, Value: portfolio.MarkToMarket(bar.Close), Position: portfolio.Position()})
			}
			continue
		}

		label, err := p.Predict(ctx, features)
		if err != nil {
			return nil, core.WrapError(core.ErrPrediction,
				fmt.Errorf("bar %d (%s): %w", i, bar.Time.Format("2006-01-02"), err))
		}
		if !predictor.IsBinary(label) {
			return nil, core.WrapError(core.ErrPrediction,
				fmt.Errorf("bar %d (%s): label %d not in {0, 1}", i, bar.Time.Format("2006-01-02"), label))
		}
		b.recorder.RecordPrediction(label)
		result.BarsProcessed++

		switch {
		case label == core.LabelUp && !portfolio.IsLong():
			if portfolio.Buy(bar.Time, bar.Close) {
				b.recorder.RecordTrade(string(core.ActionBuy))
				b.log.Debug("executing buy order",
					zap.Int("bar", i),
					zap.Float64("price", bar.Close),
					zap.Float64("quantity", portfolio.Quantity()),
				)
			}
		case label == core.LabelDown && portfolio.IsLong():
			if portfolio.Sell(bar.Time, bar.Close) {
				b.recorder.RecordTrade(string(core.ActionSell))
				b.log.Debug("executing sell order",
					zap.Int("bar", i),
					zap.Float64("price", bar.Close),
					zap.Float64("cash", portfolio.Cash()),
				)
			}
		}

		equity = append(equity, EquityPoint{
			Time:     bar.Time,
			Value:    portfolio.MarkToMarket(bar.Close),
			Position: portfolio.Position(),
		})
	}

	result.EquityCurve = equity
	result.Trades = portfolio.Trades()
	result.Summary = Analyze(equity, result.Trades, initialCash, b.cfg.Annualization)
	return result, nil
}

func (b *Backtester) validate(bars []core.Bar, p predictor.Predictor, initialCash float64) error {
	if p == nil {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("predictor is nil"))
	}
	if b.cfg.Lookback < 1 {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("lookback must be at least 1, got %d", b.cfg.Lookback))
	}
	if initialCash <= 0 {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("initial cash must be positive, got %f", initialCash))
	}
	for i, bar := range bars {
		if !bar.IsValid() {
			return core.WrapError(core.ErrInvalidInput, fmt.Errorf("bar %d is invalid", i))
		}
		if i > 0 && !bar.Time.After(bars[i-1].Time) {
			return core.WrapError(core.ErrInvalidInput,
				fmt.Errorf("bars not strictly ascending at %d (%s)", i, bar.Time.Format("2006-01-02")))
		}
	}
	return nil
}

// features builds the vector for bar i. The bool is false when the bar has no
// usable vector yet.
func (b *Backtester) features(bars []core.Bar, i int) (core.FeatureVector, bool) {
	if b.cfg.FeatureSource == FeatureSourceIndicators {
		values := make([]float64, len(core.FeatureNames))
		for j, name := range core.FeatureNames {
			v, ok := bars[i].Field(name)
			if !ok {
				return core.FeatureVector{}, false
			}
			values[j] = v
		}
		return core.FeatureVector{Names: core.FeatureNames, Values: values}, true
	}

	window := bars[i-b.cfg.Lookback+1 : i+1]
	values := make([]float64, len(window))
	for j, bar := range window {
		values[j] = bar.Close
	}
	return core.FeatureVector{Names: core.FeatureNames, Values: values}, true
}

// checkSchema compares the vector layout this run will produce against what
// the predictor declares.
func (b *Backtester) checkSchema(p predictor.Predictor) (Warning, bool) {
	if b.cfg.FeatureSource == FeatureSourceRawCloses && b.cfg.Lookback != len(core.FeatureNames) {
		return mismatch("raw close window of %d values labelled with %d feature names",
			b.cfg.Lookback, len(core.FeatureNames)), false
	}

	s, ok := p.(predictor.Schema)
	if !ok {
		return Warning{}, true
	}
	expected := s.FeatureNames()
	if len(expected) != len(core.FeatureNames) {
		return mismatch("predictor expects %d features, vector has %d",
			len(expected), len(core.FeatureNames)), false
	}
	if !slices.Equal(expected, core.FeatureNames) {
		return mismatch("predictor feature order %v differs from vector order %v",
			expected, core.FeatureNames), false
	}
	return Warning{}, true
}

func mismatch(format string, args ...any) Warning {
	return Warning{
		Code:    core.ErrFeatureMismatch.Code,
		Message: fmt.Sprintf(format, args...),
	}
}
