package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradeforge/quantback/journal"
)

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the run ledger",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()

		runs, err := j.ListRuns(cmd.Context(), journalLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		fmt.Printf("%-26s  %-20s  %-8s  %-10s  %-10s  %s\n",
			"RUN ID", "STRATEGY", "SYMBOL", "RETURN", "TRADES", "CREATED")
		for _, r := range runs {
			fmt.Printf("%-26s  %-20s  %-8s  %9s%%  %-10d  %s\n",
				r.RunID, r.Strategy, r.Symbol,
				r.TotalReturn.Mul(hundred).StringFixed(2),
				r.TotalTrades,
				r.Created.UTC().Format(time.RFC3339))
		}
		return nil
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its trades",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()

		run, err := j.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:           %s\n", run.RunID)
		fmt.Printf("Strategy:      %s\n", run.Strategy)
		fmt.Printf("Symbol:        %s\n", run.Symbol)
		fmt.Printf("Period:        %s to %s\n",
			run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"))
		fmt.Printf("Capital:       %s -> %s\n",
			run.InitialCapital.StringFixed(2), run.FinalEquity.StringFixed(2))
		fmt.Printf("Return:        %s%%\n", run.TotalReturn.Mul(hundred).StringFixed(2))
		fmt.Printf("Max Drawdown:  %s%%\n", run.MaxDrawdown.Mul(hundred).StringFixed(2))
		fmt.Printf("Sharpe:        %s\n", run.SharpeRatio.StringFixed(2))
		fmt.Printf("Trades:        %d (%d wins / %d losses)\n",
			run.TotalTrades, run.WinningTrades, run.LosingTrades)

		trades, err := j.ListTrades(cmd.Context(), run.RunID)
		if err != nil {
			return err
		}
		if len(trades) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Printf("%-4s  %-12s  %-12s  %-10s  %-10s  %-10s  %-12s  %s\n",
			"#", "ENTRY", "EXIT", "SHARES", "IN", "OUT", "P/L", "REASON")
		for _, tr := range trades {
			fmt.Printf("%-4d  %-12s  %-12s  %-10s  %-10s  %-10s  %-12s  %s\n",
				tr.Seq+1,
				tr.EntryTime.Format("2006-01-02"), tr.ExitTime.Format("2006-01-02"),
				tr.Shares.String(),
				tr.EntryPrice.StringFixed(2), tr.ExitPrice.StringFixed(2),
				tr.PnL.StringFixed(2), tr.ExitReason)
		}
		return nil
	},
}

func init() {
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 0, "maximum runs to list (0 = all)")
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	rootCmd.AddCommand(journalCmd)
}
