package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeforge/quantback/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "quantback",
	Short: "A deterministic daily-bar backtesting engine for equity strategies",
	Long: `Quantback replays historical daily bars through trading strategies and
reports how they would have performed.

It provides tools for:
  - Fetching daily bars from Alpaca with a Stooq fallback
  - Caching bar data locally as Parquet
  - Backtesting built-in strategies (buy-and-hold, SMA/EMA crossover)
  - Rendering Markdown and JSON reports
  - Journaling every run to a SQLite ledger`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (YAML or JSON)")
}

// loadConfig reads the configured file, or returns defaults when no file
// was given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
