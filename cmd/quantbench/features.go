package main

import (
	"fmt"
	"path/filepath"

	"github.com/newthinker/quantbench/internal/dataset"
	"github.com/newthinker/quantbench/internal/indicator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	featuresIn  string
	featuresOut string
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Compute technical indicators for every ticker CSV",
	Long: `Read each raw price CSV from the input directory, add SMA, EMA, RSI, Bollinger bands,
moving averages, volatility, lags and momentum, and write the frame to the output directory.`,
	Args: cobra.NoArgs,
	RunE: runFeatures,
}

func init() {
	featuresCmd.Flags().StringVar(&featuresIn, "in", "", "raw CSV directory (default data.input_dir)")
	featuresCmd.Flags().StringVar(&featuresOut, "out", "", "output directory (default data.output_dir)")

	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	in, out := cfg.Data.InputDir, cfg.Data.OutputDir
	if featuresIn != "" {
		in = featuresIn
	}
	if featuresOut != "" {
		out = featuresOut
	}

	paths, err := dataset.ListCSV(in)
	if err != nil {
		return fmt.Errorf("listing %s: %w", in, err)
	}

	var g errgroup.Group
	g.SetLimit(max(cfg.Batch.Workers, 1))
	for _, path := range paths {
		g.Go(func() error {
			ticker := dataset.SymbolFromPath(path)
			bars, err := dataset.LoadFile(path, dataset.LoadOptions{SkipRows: cfg.Data.SkipRows})
			if err != nil {
				return fmt.Errorf("%s: %w", ticker, err)
			}

			dest := filepath.Join(out, ticker+".csv")
			if err := dataset.WriteFile(dest, indicator.Augment(bars)); err != nil {
				return fmt.Errorf("%s: %w", ticker, err)
			}
			log.Info("processed", zap.String("ticker", ticker), zap.Int("rows", len(bars)), zap.String("path", dest))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d tickers into %s\n", len(paths), out)
	return nil
}
