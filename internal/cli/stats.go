package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tasktrack/tasktrack/internal/daemon"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise tasks by status",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	st, err := d.Tasks.Stats(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total\t%d\n", st.Total)
	fmt.Fprintf(w, "Pending\t%d\n", st.Pending)
	fmt.Fprintf(w, "In progress\t%d\n", st.InProgress)
	fmt.Fprintf(w, "Completed\t%d\n", st.Completed)
	fmt.Fprintf(w, "Cancelled\t%d\n", st.Cancelled)
	fmt.Fprintf(w, "On hold\t%d\n", st.OnHold)
	fmt.Fprintf(w, "Overdue\t%d\n", st.Overdue)
	fmt.Fprintf(w, "Due today\t%d\n", st.DueToday)
	fmt.Fprintf(w, "Avg completion\t%.0f min\n", st.AvgCompletionMinutes)
	return w.Flush()
}
