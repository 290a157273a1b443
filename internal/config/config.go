package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/quantbench/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Backtest  BacktestConfig  `mapstructure:"backtest"`
	Data      DataConfig      `mapstructure:"data"`
	Predictor PredictorConfig `mapstructure:"predictor"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// BacktestConfig holds the simulation settings shared by every run.
type BacktestConfig struct {
	InitialCash   float64      `mapstructure:"initial_cash" validate:"gt=0"`
	Lookback      int          `mapstructure:"lookback" validate:"min=1"`
	FeatureSource string       `mapstructure:"feature_source" validate:"oneof=raw_closes indicators"`
	Sizing        SizingConfig `mapstructure:"sizing"`
	Annualization float64      `mapstructure:"annualization" validate:"gte=0"`
}

// SizingConfig selects how much a buy order acquires.
type SizingConfig struct {
	Mode     string  `mapstructure:"mode" validate:"oneof=all_cash fraction fixed"`
	Fraction float64 `mapstructure:"fraction" validate:"gte=0,lte=1"`
	Quantity float64 `mapstructure:"quantity" validate:"gte=0"`
}

type DataConfig struct {
	InputDir        string      `mapstructure:"input_dir"`
	OutputDir       string      `mapstructure:"output_dir"`
	SkipRows        int         `mapstructure:"skip_rows" validate:"gte=0"`
	ComputeFeatures bool        `mapstructure:"compute_features"`
	Fetch           FetchConfig `mapstructure:"fetch"`
}

// FetchConfig controls downloading daily history from Yahoo Finance.
type FetchConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// PredictorConfig selects the model behind the predictor port.
type PredictorConfig struct {
	Type      string    `mapstructure:"type" validate:"oneof=constant logistic llm"`
	Label     int       `mapstructure:"label" validate:"oneof=0 1"`
	ModelPath string    `mapstructure:"model_path" validate:"required_if=Type logistic"`
	LLM       LLMConfig `mapstructure:"llm"`
}

type LLMConfig struct {
	Provider          string        `mapstructure:"provider" validate:"omitempty,oneof=claude openai ollama"`
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	Endpoint          string        `mapstructure:"endpoint"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers" validate:"min=1"`
}

type StorageConfig struct {
	Archive    ArchiveConfig `mapstructure:"archive"`
	ResultsDSN string        `mapstructure:"results_dsn"` // SQLite path, empty disables the index
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type" validate:"omitempty,oneof=localfs s3"` // "localfs" or "s3"
	Path string   `mapstructure:"path"`                                       // For localfs
	S3   S3Config `mapstructure:"s3"`                                         // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("QUANTBENCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Backtest: BacktestConfig{
			InitialCash:   10000,
			Lookback:      8,
			FeatureSource: "raw_closes",
			Sizing: SizingConfig{
				Mode: "all_cash",
			},
			Annualization: 1,
		},
		Data: DataConfig{
			InputDir:  "data",
			OutputDir: "processed_data",
			SkipRows:  2,
			Fetch: FetchConfig{
				RequestsPerSecond: 2,
				Timeout:           10 * time.Second,
			},
		},
		Predictor: PredictorConfig{
			Type:  "constant",
			Label: 1,
			LLM: LLMConfig{
				RequestsPerSecond: 1,
				Timeout:           2 * time.Minute,
			},
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Storage: StorageConfig{
			Archive: ArchiveConfig{
				Type: "localfs",
				Path: "results",
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

var validate = validator.New()

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if c.Backtest.Sizing.Mode == "fraction" && c.Backtest.Sizing.Fraction == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("sizing fraction required when mode is fraction"))
	}
	if c.Backtest.Sizing.Mode == "fixed" && c.Backtest.Sizing.Quantity == 0 {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("sizing quantity required when mode is fixed"))
	}

	// LLM validation - if the predictor is llm backed, check provider config
	if c.Predictor.Type == "llm" {
		switch c.Predictor.LLM.Provider {
		case "":
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("llm provider required when predictor type is llm"))
		case "claude", "openai":
			if c.Predictor.LLM.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("%s api_key required when provider is %s", c.Predictor.LLM.Provider, c.Predictor.LLM.Provider))
			}
		}
	}

	if c.Storage.Archive.Type == "s3" && c.Storage.Archive.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("s3 bucket required when archive type is s3"))
	}

	return nil
}
