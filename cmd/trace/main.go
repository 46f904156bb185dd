package main

import (
	"os"

	"github.com/wonny/fundtrace/cmd/trace/commands"
)

// main is the entry point for the fundtrace CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/trace [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.ExitCode(err))
	}
}
