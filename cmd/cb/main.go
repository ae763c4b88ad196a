// Package main is the entry point for the care-billing CLI.
package main

import (
	"fmt"
	"os"

	"github.com/evcraddock/care-billing/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
