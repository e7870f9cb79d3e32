// Package main provides the entry point for the backlogctl CLI.
package main

import (
	"os"

	"github.com/mwhitford/backlogctl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
