package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/newthinker/quantbench/internal/collector/yahoo"
	"github.com/newthinker/quantbench/internal/dataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fetchFrom string
	fetchTo   string
	fetchOut  string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <symbol>...",
	Short: "Download daily history from Yahoo Finance",
	Long:  "Download adjusted daily bars for each symbol and write them as raw CSVs (default data.input_dir)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "Start date YYYY-MM-DD (required)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "End date YYYY-MM-DD, exclusive (default today)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "output directory (default data.input_dir)")

	fetchCmd.MarkFlagRequired("from")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	fromDate, err := time.Parse("2006-01-02", fetchFrom)
	if err != nil {
		return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	toDate := time.Now().UTC().Truncate(24 * time.Hour)
	if fetchTo != "" {
		toDate, err = time.Parse("2006-01-02", fetchTo)
		if err != nil {
			return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
	}
	if !toDate.After(fromDate) {
		return fmt.Errorf("end date must be after start date")
	}

	out := cfg.Data.InputDir
	if fetchOut != "" {
		out = fetchOut
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := yahoo.New(cfg.Data.Fetch)
	var failed []string
	for _, symbol := range args {
		bars, err := client.FetchHistory(ctx, symbol, fromDate, toDate)
		if err != nil {
			log.Error("fetch failed", zap.String("ticker", symbol), zap.Error(err))
			failed = append(failed, symbol)
			continue
		}

		path := filepath.Join(out, symbol+".csv")
		if err := dataset.WriteRawFile(path, symbol, bars); err != nil {
			return err
		}
		log.Info("downloaded", zap.String("ticker", symbol), zap.Int("rows", len(bars)), zap.String("path", path))
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to fetch %s", strings.Join(failed, ", "))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d tickers into %s\n", len(args), out)
	return nil
}
