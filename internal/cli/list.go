package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tasktrack/tasktrack/internal/app/tasks"
	"github.com/tasktrack/tasktrack/internal/app/urgency"
	"github.com/tasktrack/tasktrack/internal/daemon"
	"github.com/tasktrack/tasktrack/internal/domain"
)

func init() {
	listCmd.Flags().StringVar(&listView, "view", "", "Preset view: today, upcoming, overdue")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Comma-separated statuses (default pending,in_progress)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Substring of title or description")
	listCmd.Flags().StringVar(&listOrder, "order-by", "urgency_score", "Sort field")
	listCmd.Flags().StringVar(&listDir, "dir", "desc", "Sort direction: asc or desc")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum rows (0 = all)")
	rootCmd.AddCommand(listCmd)
}

var (
	listView   string
	listStatus string
	listSearch string
	listOrder  string
	listDir    string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks ranked by urgency",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	var ranked []urgency.Ranked
	switch listView {
	case "":
		q := tasks.ListQuery{
			Search:   listSearch,
			OrderBy:  listOrder,
			OrderDir: listDir,
			Limit:    listLimit,
		}
		if listStatus != "" {
			for _, s := range strings.Split(listStatus, ",") {
				st := domain.TaskStatus(strings.TrimSpace(s))
				if !st.Valid() {
					return fmt.Errorf("unknown status %q", s)
				}
				q.Statuses = append(q.Statuses, st)
			}
		}
		ranked, err = d.Tasks.List(ctx, q)
	case "today":
		ranked, err = d.Tasks.Today(ctx)
	case "upcoming":
		ranked, err = d.Tasks.Upcoming(ctx)
	case "overdue":
		ranked, err = d.Tasks.Overdue(ctx)
	default:
		return fmt.Errorf("unknown view %q (want today, upcoming or overdue)", listView)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ranked) == 0 {
		fmt.Fprintln(out, "No tasks. Run 'tasktrack add <title>' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRIORITY\tSCORE\tURGENCY\tDEADLINE\tSTATUS")
	for _, r := range ranked {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\t%s\t%s\t%s\n",
			shortID(r.ID),
			r.Title,
			r.Priority,
			r.Urgency.Score,
			r.Urgency.Status,
			formatTime(r.Deadline),
			r.Status,
		)
	}
	return w.Flush()
}

// shortID trims a uuid to its first block for table output. Commands accept
// any unique prefix.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
