// Package main provides the entry point for the arbiter CLI.
package main

import (
	"os"

	"github.com/arbiterhq/arbiter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
