package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/newthinker/quantbench/internal/backtest"
	"github.com/newthinker/quantbench/internal/batch"
	"github.com/newthinker/quantbench/internal/core"
	"github.com/newthinker/quantbench/internal/dataset"
	"github.com/newthinker/quantbench/internal/indicator"
	"github.com/newthinker/quantbench/internal/logger"
	"github.com/newthinker/quantbench/internal/predictor"
	"github.com/newthinker/quantbench/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	backtestCash          float64
	backtestLookback      int
	backtestSkipRows      int
	backtestFeatureSource string
	backtestCompute       bool
	backtestEquityOut     string
	backtestFull          bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest <file.csv>",
	Short: "Backtest one ticker",
	Long:  "Run the configured predictor over one price CSV and print final value, Sharpe ratio and max drawdown as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().Float64Var(&backtestCash, "cash", 0, "initial cash (default from config)")
	backtestCmd.Flags().IntVar(&backtestLookback, "lookback", 0, "bars required before trading (default from config)")
	backtestCmd.Flags().IntVar(&backtestSkipRows, "skip-rows", -1, "metadata rows after the header (default from config)")
	backtestCmd.Flags().StringVar(&backtestFeatureSource, "feature-source", "", "raw_closes or indicators (default from config)")
	backtestCmd.Flags().BoolVar(&backtestCompute, "compute-features", false, "compute technical indicators before running")
	backtestCmd.Flags().StringVar(&backtestEquityOut, "equity-out", "", "write the equity curve to this parquet file")
	backtestCmd.Flags().BoolVar(&backtestFull, "full", false, "print the full report instead of the summary")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if backtestCash > 0 {
		cfg.Backtest.InitialCash = backtestCash
	}
	if backtestLookback > 0 {
		cfg.Backtest.Lookback = backtestLookback
	}
	if backtestSkipRows >= 0 {
		cfg.Data.SkipRows = backtestSkipRows
	}
	if backtestFeatureSource != "" {
		cfg.Backtest.FeatureSource = backtestFeatureSource
	}
	if backtestCompute {
		cfg.Data.ComputeFeatures = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	engineCfg, err := batch.EngineConfig(cfg.Backtest)
	if err != nil {
		return err
	}
	factory, err := predictor.NewFactory(cfg.Predictor)
	if err != nil {
		return err
	}
	p, err := factory()
	if err != nil {
		return err
	}

	path := args[0]
	ticker := dataset.SymbolFromPath(path)
	bars, err := dataset.LoadFile(path, dataset.LoadOptions{SkipRows: cfg.Data.SkipRows})
	if err != nil {
		return err
	}
	if cfg.Data.ComputeFeatures {
		bars = indicator.Augment(bars)
	}

	symLog := logger.ForSymbol(log, ticker)
	symLog.Info("running backtest",
		zap.Int("bars", len(bars)),
		zap.Int("lookback", engineCfg.Lookback),
		zap.String("feature_source", string(engineCfg.FeatureSource)),
		zap.String("predictor", cfg.Predictor.Type),
	)

	res, err := backtest.New(engineCfg, backtest.WithLogger(symLog)).Run(context.Background(), bars, p, cfg.Backtest.InitialCash)
	status := report.StatusSuccess
	switch {
	case errors.Is(err, core.ErrInsufficientData):
		status = report.StatusInsufficientData
		symLog.Warn("not enough data for lookback", zap.Error(err))
	case err != nil:
		return err
	}
	res.Symbol = ticker

	if backtestEquityOut != "" {
		data, err := report.EncodeEquity(res.EquityCurve)
		if err != nil {
			return err
		}
		if err := os.WriteFile(backtestEquityOut, data, 0644); err != nil {
			return fmt.Errorf("writing equity curve: %w", err)
		}
	}

	var out []byte
	if backtestFull {
		out, err = report.New("", ticker, status, res, nil).JSON()
	} else {
		out, err = report.SummaryJSON(res.Summary)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
