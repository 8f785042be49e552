package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradeforge/quantback/backtest"
	"github.com/tradeforge/quantback/config"
	"github.com/tradeforge/quantback/data"
	"github.com/tradeforge/quantback/internal/logging"
	"github.com/tradeforge/quantback/journal"
	"github.com/tradeforge/quantback/report"
	"github.com/tradeforge/quantback/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over one or more symbols",
	Long: `Run fetches daily bars for each symbol, replays them through the
configured strategy, and writes a Markdown and JSON report per symbol.

Example:
  quantback run -c config.yaml
  quantback run --strategy sma-cross --symbols AAPL,MSFT \
      --start 2023-01-01 --end 2023-12-31 --capital 10000`,
	RunE: runRun,
}

var hundred = decimal.NewFromInt(100)

var (
	runStrategy string
	runSymbols  []string
	runStart    string
	runEnd      string
	runCapital  string
	runFast     int
	runSlow     int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (overrides config)")
	runCmd.Flags().StringSliceVar(&runSymbols, "symbols", nil, "symbols to backtest (overrides config)")
	runCmd.Flags().StringVar(&runStart, "start", "", "start date YYYY-MM-DD (overrides config)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "end date YYYY-MM-DD (overrides config)")
	runCmd.Flags().StringVar(&runCapital, "capital", "", "initial capital (overrides config)")
	runCmd.Flags().IntVar(&runFast, "fast", 0, "crossover: fast period")
	runCmd.Flags().IntVar(&runSlow, "slow", 0, "crossover: slow period")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	mgr := buildManager(cfg, log)

	strat, err := strategy.New(cfg.Run.Strategy, strategy.Params(cfg.Run.Params))
	if err != nil {
		return err
	}

	var ledger *journal.SQLite
	if cfg.Journal.Enabled {
		ledger, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	ctx := cmd.Context()
	for _, symbol := range cfg.Run.Symbols {
		runCfg, err := cfg.RunFor(symbol)
		if err != nil {
			return err
		}

		bars, warnings, err := mgr.Fetch(ctx, symbol, runCfg.Start, runCfg.End)
		if err != nil {
			return fmt.Errorf("%s: %w", symbol, err)
		}

		eng, err := backtest.NewEngine(runCfg, symbol, bars, strat,
			backtest.WithEngineLogger(log),
			backtest.WithDataWarnings(warnings))
		if err != nil {
			return err
		}

		res, err := eng.Run()
		if err != nil {
			return fmt.Errorf("%s: %w", symbol, err)
		}

		mdPath, _, err := report.WriteFiles(res, cfg.Report.Dir)
		if err != nil {
			return err
		}

		if ledger != nil {
			runID, err := ledger.RecordRun(ctx, res)
			if err != nil {
				return err
			}
			fmt.Printf("run %s recorded\n", runID)
		}

		printSummary(res, mdPath)
	}
	return nil
}

func applyRunFlags(cfg *config.Config) {
	if runStrategy != "" {
		cfg.Run.Strategy = runStrategy
	}
	if len(runSymbols) > 0 {
		cfg.Run.Symbols = runSymbols
	}
	if runStart != "" {
		cfg.Run.Start = runStart
	}
	if runEnd != "" {
		cfg.Run.End = runEnd
	}
	if runCapital != "" {
		cfg.Run.InitialCapital = runCapital
	}
	if runFast > 0 || runSlow > 0 {
		if cfg.Run.Params == nil {
			cfg.Run.Params = map[string]string{}
		}
		if runFast > 0 {
			cfg.Run.Params["fast"] = fmt.Sprint(runFast)
		}
		if runSlow > 0 {
			cfg.Run.Params["slow"] = fmt.Sprint(runSlow)
		}
	}
}

// buildManager wires the data source chain: Alpaca primary when credentials
// are present, Stooq otherwise, with Stooq as the fallback behind Alpaca.
func buildManager(cfg *config.Config, log *zap.Logger) *data.Manager {
	var primary data.Source
	if cfg.Data.AlpacaKey != "" && cfg.Data.AlpacaSecret != "" {
		primary = data.NewAlpacaSource(cfg.Data.AlpacaKey, cfg.Data.AlpacaSecret, cfg.Data.AlpacaURL)
	} else {
		primary = data.NewStooqSource()
	}

	opts := []data.ManagerOption{data.WithLogger(log)}
	if cfg.Data.Fallback && primary.Name() != "stooq" {
		opts = append(opts, data.WithFallback(data.NewStooqSource()))
	}
	if cfg.Data.CacheEnabled {
		opts = append(opts, data.WithCache(data.NewBarCache(cfg.Data.CacheDir)))
	}
	if cfg.Data.MaxRetries > 0 {
		opts = append(opts, data.WithRetry(cfg.Data.MaxRetries, 500*time.Millisecond))
	}
	return data.NewManager(primary, opts...)
}

func printSummary(res *backtest.Result, mdPath string) {
	m := res.Metrics

	fmt.Println("==================================================")
	fmt.Printf(" %s on %s\n", res.Config.Strategy, res.Symbol)
	fmt.Println("==================================================")
	fmt.Printf("Period:        %s to %s\n",
		res.Config.Start.Format("2006-01-02"), res.Config.End.Format("2006-01-02"))
	fmt.Printf("Final Equity:  %s\n", m.FinalEquity.StringFixed(2))
	fmt.Printf("Total Return:  %s%%\n", m.TotalReturn.Mul(hundred).StringFixed(2))
	fmt.Printf("Trades:        %d (%d wins / %d losses)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Printf("Max Drawdown:  %s%%\n", m.MaxDrawdown.Mul(hundred).StringFixed(2))
	fmt.Printf("Sharpe Ratio:  %s\n", m.SharpeRatio.StringFixed(2))
	fmt.Printf("Elapsed:       %s\n", res.ExecutionTime.Round(time.Millisecond))
	fmt.Printf("Report:        %s\n", mdPath)

	for _, w := range res.DataWarnings {
		fmt.Printf("Warning:       %s\n", w)
	}
	fmt.Println()
}
