// Package main is the entry point for the pgsplay command.
package main

import (
	"os"

	"github.com/ristryder/pgsplay/cmd/pgsplay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
