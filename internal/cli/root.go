// Package cli implements the tasktrack command-line interface using Cobra.
// Every command except serve opens the database directly.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tasktrack",
	Short: "tasktrack: personal tasks ranked by urgency",
	Long: `tasktrack keeps a personal task list in a local SQLite database.

Tasks are ranked by an urgency score built from priority, deadline and
planned date. Completing a recurring task schedules its next occurrence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
