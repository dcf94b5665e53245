// Package main provides the crickflat CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/crickflat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
