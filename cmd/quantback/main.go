package main

import (
	"os"

	"github.com/tradeforge/quantback/cmd/quantback/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
