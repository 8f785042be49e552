package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeforge/quantback/strategy"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the built-in strategies",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available strategies:")
		for _, name := range strategy.Names() {
			fmt.Printf("  - %s\n", name)
		}
		fmt.Println()
		fmt.Println("Crossover strategies accept fast/slow period parameters:")
		fmt.Println("  quantback run -s sma-cross --fast 20 --slow 50 ...")
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
