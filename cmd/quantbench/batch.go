package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/quantbench/internal/batch"
	"github.com/newthinker/quantbench/internal/metrics"
	"github.com/newthinker/quantbench/internal/predictor"
	"github.com/newthinker/quantbench/internal/report"
	"github.com/newthinker/quantbench/internal/storage/archive"
	"github.com/newthinker/quantbench/internal/storage/results"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchWorkers     int
	batchMetricsAddr string
	batchCompute     bool
	batchNoArchive   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Backtest every ticker CSV in a directory",
	Long: `Run the configured predictor over every *.csv in a directory (default data.input_dir),
archive a report per ticker and print a final value table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "concurrent tickers (default from config)")
	batchCmd.Flags().StringVar(&batchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	batchCmd.Flags().BoolVar(&batchCompute, "compute-features", false, "compute technical indicators before running")
	batchCmd.Flags().BoolVar(&batchNoArchive, "no-archive", false, "skip writing reports to archive storage")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	dir := cfg.Data.InputDir
	if len(args) == 1 {
		dir = args[0]
	}
	if batchWorkers > 0 {
		cfg.Batch.Workers = batchWorkers
	}
	if batchMetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = batchMetricsAddr
	}
	if batchCompute {
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

	var store archive.Storage
	if !batchNoArchive {
		store, err = archive.New(cfg.Storage.Archive)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
	}
	index, err := results.Open(cfg.Storage.ResultsDSN)
	if err != nil {
		return fmt.Errorf("opening results index: %w", err)
	}
	defer index.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []batch.Option{
		batch.WithLogger(log),
		batch.WithWriter(report.NewWriter(store, index, log)),
	}

	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		opts = append(opts, batch.WithMetrics(reg))

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, reg.Handler(cfg.Metrics.Path))
		server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		go func() {
			log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr), zap.String("path", cfg.Metrics.Path))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	runner := batch.NewRunner(engineCfg, batch.Options{
		InitialCash:     cfg.Backtest.InitialCash,
		Workers:         cfg.Batch.Workers,
		SkipRows:        cfg.Data.SkipRows,
		ComputeFeatures: cfg.Data.ComputeFeatures,
	}, factory, opts...)

	summary, err := runner.Run(ctx, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n\n", summary.RunID)
	if err := report.WriteTable(out, summary.Records()); err != nil {
		return err
	}

	if failed := summary.Count(report.StatusFailed); failed > 0 {
		return fmt.Errorf("%d of %d tickers failed", failed, len(summary.Tickers))
	}
	return nil
}
