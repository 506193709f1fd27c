package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tasktrack/tasktrack/internal/app/tasks"
	"github.com/tasktrack/tasktrack/internal/app/urgency"
	"github.com/tasktrack/tasktrack/internal/daemon"
	"github.com/tasktrack/tasktrack/internal/domain"
)

func init() {
	addCmd.Flags().StringVarP(&addDesc, "desc", "d", "", "Description")
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", domain.DefaultPriority, "Priority 1 (most urgent) to 100")
	addCmd.Flags().StringVar(&addDeadline, "deadline", "", "Deadline, e.g. 2025-10-10 or '2025-10-10 17:00'")
	addCmd.Flags().StringVar(&addPlanned, "planned", "", "Planned date")
	addCmd.Flags().IntVar(&addEstimate, "estimate", 0, "Estimated duration in minutes")
	addCmd.Flags().StringVar(&addRecur, "recur", "none", "Recurrence: none, daily, weekly, monthly, yearly")
	addCmd.Flags().IntVar(&addEvery, "every", 1, "Recurrence interval")
	addCmd.Flags().StringVar(&addUntil, "until", "", "Recurrence end date")
	rootCmd.AddCommand(addCmd)
}

var (
	addDesc     string
	addPriority int
	addDeadline string
	addPlanned  string
	addEstimate int
	addRecur    string
	addEvery    int
	addUntil    string
)

var addCmd = &cobra.Command{
	Use:   "add TITLE...",
	Short: "Create a task",
	Long: `Create a task.

Example:
  tasktrack add Pay rent --priority 10 --deadline 2025-11-01 --recur monthly`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	if err := tasks.ValidatePriority(addPriority); err != nil {
		return err
	}
	if err := tasks.ValidateInterval(addEvery); err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()
	ctx := cmd.Context()

	nt := domain.NewTask{
		Title:              strings.Join(args, " "),
		Description:        addDesc,
		Priority:           addPriority,
		RecurrenceInterval: addEvery,
	}
	if addEstimate != 0 {
		nt.EstimatedDuration = &addEstimate
	}
	if nt.Deadline, err = optionalTime(addDeadline); err != nil {
		return err
	}
	if nt.PlannedDate, err = optionalTime(addPlanned); err != nil {
		return err
	}
	if nt.RecurrenceEndDate, err = optionalTime(addUntil); err != nil {
		return err
	}
	if nt.RecurrenceTypeID, err = recurrenceID(ctx, d.Tasks, addRecur); err != nil {
		return err
	}

	t, err := d.Tasks.Create(ctx, nt)
	if err != nil {
		return err
	}
	u := urgency.ScoreTask(t, d.Tasks.Now())
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (score %.0f, %s)\n", t.ID, t.Title, u.Score, u.Status)
	return nil
}
