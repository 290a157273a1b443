package main

import (
	"context"
	"fmt"

	"github.com/newthinker/quantbench/internal/report"
	"github.com/newthinker/quantbench/internal/storage/results"
	"github.com/spf13/cobra"
)

var (
	runsTicker string
	runsStatus string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show indexed backtest results",
	Long:  "List results from the SQLite index (storage.results_dsn), optionally for a single run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsTicker, "ticker", "", "filter by ticker")
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "maximum rows")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Storage.ResultsDSN == "" {
		return fmt.Errorf("storage.results_dsn is not configured")
	}
	index, err := results.Open(cfg.Storage.ResultsDSN)
	if err != nil {
		return err
	}
	defer index.Close()

	ctx := context.Background()
	var recs []results.Record
	if len(args) == 1 {
		recs, err = index.GetByRun(ctx, args[0])
	} else {
		recs, err = index.List(ctx, results.ListFilter{Ticker: runsTicker, Status: runsStatus, Limit: runsLimit})
	}
	if err != nil {
		return err
	}

	return report.WriteTable(cmd.OutOrStdout(), recs)
}
