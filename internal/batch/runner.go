package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/newthinker/quantbench/internal/backtest"
	"github.com/newthinker/quantbench/internal/config"
	"github.com/newthinker/quantbench/internal/core"
	"github.com/newthinker/quantbench/internal/dataset"
	"github.com/newthinker/quantbench/internal/indicator"
	"github.com/newthinker/quantbench/internal/logger"
	"github.com/newthinker/quantbench/internal/metrics"
	"github.com/newthinker/quantbench/internal/predictor"
	"github.com/newthinker/quantbench/internal/report"
	"github.com/newthinker/quantbench/internal/storage/results"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options controls a batch
type Options struct {
	InitialCash     float64
	Workers         int
	SkipRows        int
	ComputeFeatures bool
}

// TickerResult is the outcome of one ticker
type TickerResult struct {
	Ticker   string
	Status   string
	Result   *backtest.Result // nil when the run failed
	Record   *results.Record
	Err      error
	Duration time.Duration
}

// Summary collects every ticker of a run, sorted by ticker
type Summary struct {
	RunID   string
	Tickers []TickerResult
}

// Records returns the index rows of the run
func (s *Summary) Records() []results.Record {
	out := make([]results.Record, 0, len(s.Tickers))
	for _, t := range s.Tickers {
		if t.Record != nil {
			out = append(out, *t.Record)
		}
	}
	return out
}

// Count returns how many tickers ended with status
func (s *Summary) Count(status string) int {
	n := 0
	for _, t := range s.Tickers {
		if t.Status == status {
			n++
		}
	}
	return n
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the runner logger
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics records run, trade and prediction metrics in reg
func WithMetrics(reg *metrics.Registry) Option {
	return func(r *Runner) {
		r.metrics = reg
	}
}

// WithWriter persists reports through w
func WithWriter(w *report.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.writer = w
		}
	}
}

// Runner backtests every ticker of a directory concurrently
type Runner struct {
	opts      Options
	engineCfg backtest.Config
	factory   predictor.Factory
	writer    *report.Writer
	metrics   *metrics.Registry
	log       *zap.Logger
}

// NewRunner creates a Runner. Each ticker gets its own predictor from factory.
func NewRunner(engineCfg backtest.Config, opts Options, factory predictor.Factory, options ...Option) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	r := &Runner{
		opts:      opts,
		engineCfg: engineCfg,
		factory:   factory,
		writer:    report.NewWriter(nil, nil, nil),
		log:       zap.NewNop(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// EngineConfig converts the backtest config section into an engine config
func EngineConfig(cfg config.BacktestConfig) (backtest.Config, error) {
	source, err := backtest.ParseFeatureSource(cfg.FeatureSource)
	if err != nil {
		return backtest.Config{}, err
	}
	sizer, err := backtest.NewSizer(cfg.Sizing.Mode, cfg.Sizing.Fraction, cfg.Sizing.Quantity)
	if err != nil {
		return backtest.Config{}, err
	}
	return backtest.Config{
		Lookback:      cfg.Lookback,
		FeatureSource: source,
		Sizer:         sizer,
		Annualization: cfg.Annualization,
	}, nil
}

// Run backtests every *.csv file in dir. A failing ticker never aborts the
// others; the returned error covers only problems with the directory itself.
func (r *Runner) Run(ctx context.Context, dir string) (*Summary, error) {
	paths, err := dataset.ListCSV(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no csv files in %s", dir))
	}

	summary := &Summary{
		RunID:   report.NewRunID(),
		Tickers: make([]TickerResult, len(paths)),
	}
	if r.metrics != nil {
		r.metrics.SetTickers(len(paths))
	}
	r.log.Info("batch started",
		zap.String("run_id", summary.RunID),
		zap.Int("tickers", len(paths)),
		zap.Int("workers", r.opts.Workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			ticker := dataset.SymbolFromPath(path)
			if err := gctx.Err(); err != nil {
				summary.Tickers[i] = TickerResult{Ticker: ticker, Status: report.StatusFailed, Err: err}
				return nil
			}

			bars, err := dataset.LoadFile(path, dataset.LoadOptions{SkipRows: r.opts.SkipRows})
			if err != nil {
				summary.Tickers[i] = r.finish(gctx, summary.RunID, TickerResult{Ticker: ticker}, nil, err)
				return nil
			}
			summary.Tickers[i] = r.RunTicker(gctx, summary.RunID, ticker, bars)
			return nil
		})
	}
	g.Wait()

	sort.SliceStable(summary.Tickers, func(i, j int) bool {
		return summary.Tickers[i].Ticker < summary.Tickers[j].Ticker
	})

	r.log.Info("batch finished",
		zap.String("run_id", summary.RunID),
		zap.Int("success", summary.Count(report.StatusSuccess)),
		zap.Int("insufficient_data", summary.Count(report.StatusInsufficientData)),
		zap.Int("failed", summary.Count(report.StatusFailed)),
	)
	return summary, nil
}

// RunTicker backtests one ticker's bars and persists the outcome
func (r *Runner) RunTicker(ctx context.Context, runID, ticker string, bars []core.Bar) TickerResult {
	log := logger.ForSymbol(r.log, ticker)
	if r.metrics != nil {
		defer r.metrics.BacktestStarted()()
	}
	start := time.Now()

	if r.opts.ComputeFeatures {
		bars = indicator.Augment(bars)
	}

	p, err := r.factory()
	if err != nil {
		return r.finish(ctx, runID, TickerResult{Ticker: ticker, Duration: time.Since(start)}, nil, err)
	}

	opts := []backtest.Option{backtest.WithLogger(log)}
	if r.metrics != nil {
		opts = append(opts, backtest.WithRecorder(r.metrics))
	}
	res, err := backtest.New(r.engineCfg, opts...).Run(ctx, bars, p, r.opts.InitialCash)
	if res != nil {
		res.Symbol = ticker
	}

	return r.finish(ctx, runID, TickerResult{Ticker: ticker, Duration: time.Since(start)}, res, err)
}

func (r *Runner) finish(ctx context.Context, runID string, tr TickerResult, res *backtest.Result, runErr error) TickerResult {
	log := logger.ForSymbol(r.log, tr.Ticker)

	switch {
	case runErr == nil:
		tr.Status = report.StatusSuccess
		log.Info("backtest complete",
			zap.Float64("final_value", res.Summary.FinalValue),
			zap.Int("trades", res.Summary.TradeCount),
		)
	case errors.Is(runErr, core.ErrInsufficientData):
		tr.Status = report.StatusInsufficientData
		log.Warn("not enough data for lookback", zap.Error(runErr))
	default:
		tr.Status = report.StatusFailed
		res = nil
		log.Error("backtest failed", zap.Error(runErr))
	}
	tr.Result = res
	tr.Err = runErr

	if r.metrics != nil {
		r.metrics.RecordBacktest(tr.Status, tr.Duration.Seconds())
		if res != nil {
			r.metrics.SetFinalValue(tr.Ticker, res.Summary.FinalValue)
		}
	}

	rec, err := r.writer.Save(ctx, report.New(runID, tr.Ticker, tr.Status, res, runErr), res)
	if err != nil {
		log.Error("saving report failed", zap.Error(err))
		if tr.Err == nil {
			tr.Err = err
		}
	}
	tr.Record = rec
	return tr
}
