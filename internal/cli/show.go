package cli

import (
	"github.com/spf13/cobra"

	"github.com/tasktrack/tasktrack/internal/app/urgency"
	"github.com/tasktrack/tasktrack/internal/daemon"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show detailed information about a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()
	ctx := cmd.Context()

	id, err := resolveID(ctx, d.Tasks, args[0])
	if err != nil {
		return err
	}
	t, err := d.Tasks.Get(ctx, id)
	if err != nil {
		return err
	}

	printTask(cmd.OutOrStdout(), t, urgency.ScoreTask(t, d.Tasks.Now()))
	return nil
}
