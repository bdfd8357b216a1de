package main

import (
	"os"

	"microcap_trading/cmd/microcap/cmd"
)

// main is the entry point of the application.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
