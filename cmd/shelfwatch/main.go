// Package main is the entry point for shelfwatch.
package main

import (
	"os"

	"github.com/shelfwatch/shelfwatch/cmd/shelfwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
