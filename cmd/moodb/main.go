// Package main is the entry point for the moodb CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/moodb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
