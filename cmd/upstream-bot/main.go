// Package main is the entry point for the upstream-bot CLI.
package main

import (
	"os"

	"github.com/tauri-apps/upstream-bot/cmd/upstream-bot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
