package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradeforge/quantback/data"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local bar cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached bar files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		entries, err := data.NewBarCache(cfg.Data.CacheDir).Entries()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("cache is empty")
			return nil
		}
		for _, e := range entries {
			fmt.Println(e)
		}
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all cached bar files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := data.NewBarCache(cfg.Data.CacheDir).Purge(); err != nil {
			return err
		}
		fmt.Println("cache purged")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
