// Package recurrence computes the successor of a completed recurring task.
//
// Month arithmetic clamps to the last day of the target month: Jan 31 plus
// one month is Feb 28 (Feb 29 in leap years), and Feb 29 plus one year is
// Feb 28. Time of day is preserved.
package recurrence

import (
	"time"

	"github.com/tasktrack/tasktrack/internal/domain"
)

// AddInterval shifts t forward by n units of r. RecurNone returns t unchanged.
func AddInterval(t time.Time, r domain.Recurrence, n int) time.Time {
	if n < 1 {
		n = 1
	}
	switch r {
	case domain.RecurDaily:
		return t.AddDate(0, 0, n)
	case domain.RecurWeekly:
		return t.AddDate(0, 0, 7*n)
	case domain.RecurMonthly:
		return addMonths(t, n)
	case domain.RecurYearly:
		return addMonths(t, 12*n)
	}
	return t
}

// addMonths is calendar-month arithmetic with end-of-month clamping.
// time.AddDate would normalise Jan 31 + 1 month to Mar 3.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// Advance returns the creation payload for the next occurrence of task, or
// false when nothing should be created: the recurrence is none or unknown,
// or a shifted date falls after the recurrence end date.
//
// task must be the record as it was immediately before the completing update.
func Advance(task domain.Task, recurrenceName string) (*domain.NewTask, bool) {
	r := domain.ParseRecurrence(recurrenceName)
	if r == domain.RecurNone {
		return nil, false
	}

	next := &domain.NewTask{
		Title:              task.Title,
		Description:        task.Description,
		Priority:           task.Priority,
		RecurrenceTypeID:   task.RecurrenceTypeID,
		RecurrenceInterval: task.RecurrenceInterval,
	}
	if task.EstimatedDuration != nil {
		v := *task.EstimatedDuration
		next.EstimatedDuration = &v
	}
	if next.RecurrenceInterval < 1 {
		next.RecurrenceInterval = 1
	}
	if task.RecurrenceEndDate != nil {
		v := *task.RecurrenceEndDate
		next.RecurrenceEndDate = &v
	}

	if task.Deadline != nil {
		d := AddInterval(*task.Deadline, r, next.RecurrenceInterval)
		if pastEnd(d, task.RecurrenceEndDate) {
			return nil, false
		}
		next.Deadline = &d
	}
	if task.PlannedDate != nil {
		p := AddInterval(*task.PlannedDate, r, next.RecurrenceInterval)
		if pastEnd(p, task.RecurrenceEndDate) {
			return nil, false
		}
		next.PlannedDate = &p
	}
	return next, true
}

func pastEnd(t time.Time, end *time.Time) bool {
	return end != nil && t.After(*end)
}
