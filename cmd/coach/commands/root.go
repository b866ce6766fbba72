package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Daily portfolio decision pipeline",
	Long: `Portfolio Coach CLI

Runs the daily decision pipeline: portfolio snapshot, market context,
deterministic signals, LLM trade ideas, risk gates, critic committee,
confidence scoring and the morning report. Advisory only; orders are
never placed automatically.

Usage:
  go run ./cmd/coach [command]

Examples:
  go run ./cmd/coach run --dry-run
  go run ./cmd/coach schedule
  go run ./cmd/coach status
  go run ./cmd/coach doctor`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
