package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktrack/tasktrack/internal/daemon"
)

func init() {
	rootCmd.AddCommand(doneCmd)
}

var doneCmd = &cobra.Command{
	Use:   "done ID",
	Short: "Mark a task completed; recurring tasks get their next occurrence",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

func runDone(cmd *cobra.Command, args []string) error {
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
	res, err := d.Tasks.Complete(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Completed %q\n", res.Task.Title)
	reportSuccessor(out, res)
	return nil
}
