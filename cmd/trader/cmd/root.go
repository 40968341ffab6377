package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rustyeddy/ivtrader/config"
	"github.com/rustyeddy/ivtrader/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Intraday options signal and trade manager",
	Long: `Trader runs an intraday options strategy over a bar series.

Each bar goes through the indicator pipeline (VWAP, EMA, ATR, ADX, RVOL,
IV rank), the entry policy (strict or weighted vote) and the trade manager,
which trails the stop and target and enforces the daily loss limit.

Settings come from a YAML/JSON config file, then .env, then the process
environment (EMA_SHORT, MAX_DAILY_LOSS, DEBUG_MODE, ...).`,
	SilenceUsage: true,
}

var (
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML or JSON); defaults when empty")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (text, json)")
}

// loadConfig builds the session config: file, then .env and environment,
// then command-line flags. It also installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(configPath); err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
	}

	lookup, err := config.Environment(envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, nil, fmt.Errorf("environment: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.Init(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
