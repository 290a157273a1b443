package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/newthinker/quantbench/internal/config"
	"github.com/newthinker/quantbench/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "quantbench",
	Short: "quantbench - model-driven backtesting for daily price series",
	Long: `quantbench replays per-ticker price series through a binary predictor,
runs a long/flat strategy and reports final value, Sharpe ratio and max drawdown.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// setup loads the environment, config and logger shared by every command
func setup() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}
	if debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
