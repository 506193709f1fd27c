package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tasktrack/tasktrack/internal/daemon"
)

func init() {
	rootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
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
	if err := d.Tasks.Delete(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
	return nil
}
