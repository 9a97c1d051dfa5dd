// Package main provides the entry point for the stelae CLI.
package main

import (
	"os"

	"github.com/stelae/stelae/cmd/stelae/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
