package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tasktrack/tasktrack/internal/api"
	"github.com/tasktrack/tasktrack/internal/app/tasks"
	"github.com/tasktrack/tasktrack/internal/app/urgency"
	"github.com/tasktrack/tasktrack/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

// recurrenceID resolves a recurrence name ("weekly") or numeric id.
func recurrenceID(ctx context.Context, svc *tasks.Service, name string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if id, err := strconv.Atoi(name); err == nil {
		return id, nil
	}
	types, err := svc.RecurrenceTypes(ctx)
	if err != nil {
		return 0, err
	}
	for _, rt := range types {
		if rt.Name == name {
			return rt.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown recurrence %q", domain.ErrInvalidTask, name)
}

// optionalTime parses a flag value; empty means unset.
func optionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := api.ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func printTask(w io.Writer, t domain.Task, u domain.Urgency) {
	fmt.Fprintf(w, "ID:          %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", t.Description)
	}
	fmt.Fprintf(w, "Status:      %s\n", t.Status)
	fmt.Fprintf(w, "Priority:    %d (%s)\n", t.Priority, urgency.PriorityLabel(t.Priority))
	fmt.Fprintf(w, "Urgency:     %.0f (%s)\n", u.Score, u.Status)
	fmt.Fprintf(w, "Deadline:    %s\n", formatTime(t.Deadline))
	fmt.Fprintf(w, "Planned:     %s\n", formatTime(t.PlannedDate))
	if t.EstimatedDuration != nil {
		fmt.Fprintf(w, "Estimate:    %d min\n", *t.EstimatedDuration)
	}
	if t.RecurrenceType != string(domain.RecurNone) {
		fmt.Fprintf(w, "Recurrence:  every %d × %s (until %s)\n", t.RecurrenceInterval, t.RecurrenceType, formatTime(t.RecurrenceEndDate))
	}
	fmt.Fprintf(w, "Created:     %s\n", formatTime(&t.CreatedAt))
	if m, ok := t.CompletionMinutes(); ok {
		fmt.Fprintf(w, "Completed:   %s (%d min)\n", formatTime(t.CompletedAt), m)
	}
}

func reportSuccessor(w io.Writer, res tasks.UpdateResult) {
	if res.Successor != nil {
		fmt.Fprintf(w, "Next occurrence %s due %s\n", res.Successor.ID, formatTime(nextDue(*res.Successor)))
	}
	if res.AdvanceErr != nil {
		fmt.Fprintf(w, "Warning: next occurrence not created: %v\n", res.AdvanceErr)
	}
}

func nextDue(t domain.Task) *time.Time {
	if t.Deadline != nil {
		return t.Deadline
	}
	return t.PlannedDate
}

var allStatuses = []domain.TaskStatus{
	domain.TaskPending, domain.TaskInProgress, domain.TaskCompleted, domain.TaskCancelled, domain.TaskOnHold,
}

// resolveID accepts a full task id or a unique prefix of one.
func resolveID(ctx context.Context, svc *tasks.Service, ref string) (string, error) {
	if _, err := svc.Get(ctx, ref); err == nil {
		return ref, nil
	} else if !errors.Is(err, domain.ErrTaskNotFound) {
		return "", err
	}

	all, err := svc.List(ctx, tasks.ListQuery{Statuses: allStatuses})
	if err != nil {
		return "", err
	}
	var match string
	for _, r := range all {
		if strings.HasPrefix(r.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("task id prefix %q is ambiguous", ref)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrTaskNotFound, ref)
	}
	return match, nil
}
