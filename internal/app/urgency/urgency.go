// Package urgency ranks tasks. A score blends priority with how close the
// deadline and planned date are; a status label drives the overdue-first
// ordering every task listing must honour.
package urgency

import (
	"time"

	"github.com/tasktrack/tasktrack/internal/domain"
)

// Score computes the urgency of a task at now. Lower priority numbers are
// more urgent. Missing dates contribute nothing.
func Score(priority int, deadline, plannedDate *time.Time, now time.Time) domain.Urgency {
	score := float64(101-priority) + float64(deadlineBonus(deadline, now)) + float64(plannedBonus(plannedDate, now))
	return domain.Urgency{
		Score:  score,
		Status: status(deadline, plannedDate, now),
	}
}

// ScoreTask is Score applied to a task's own fields.
func ScoreTask(t domain.Task, now time.Time) domain.Urgency {
	return Score(t.Priority, t.Deadline, t.PlannedDate, now)
}

// Tiers are evaluated top to bottom; the first match wins.
func deadlineBonus(deadline *time.Time, now time.Time) int {
	if deadline == nil {
		return 0
	}
	d := *deadline
	switch {
	case d.Before(now):
		return 50
	case sameDate(d, now):
		return 40
	case !d.After(now.AddDate(0, 0, 1)):
		return 30
	case !d.After(now.AddDate(0, 0, 3)):
		return 20
	case !d.After(now.AddDate(0, 0, 7)):
		return 10
	}
	return 0
}

func plannedBonus(planned *time.Time, now time.Time) int {
	if planned == nil {
		return 0
	}
	p := *planned
	switch {
	case p.Before(now):
		return 20
	case sameDate(p, now):
		return 15
	case !p.After(now.AddDate(0, 0, 1)):
		return 10
	case !p.After(now.AddDate(0, 0, 3)):
		return 5
	}
	return 0
}

func status(deadline, planned *time.Time, now time.Time) domain.UrgencyStatus {
	switch {
	case deadline != nil && deadline.Before(now):
		return domain.UrgencyOverdue
	case deadline != nil && sameDate(*deadline, now):
		return domain.UrgencyDueToday
	case deadline != nil && !deadline.After(now.AddDate(0, 0, 3)):
		return domain.UrgencyDueSoon
	case planned != nil && sameDate(*planned, now):
		return domain.UrgencyPlannedToday
	}
	return domain.UrgencyNormal
}

// sameDate compares calendar dates in now's location.
func sameDate(t, now time.Time) bool {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}

// PriorityLabel buckets a priority into the labels shown next to a task.
func PriorityLabel(priority int) string {
	switch {
	case priority <= 10:
		return "Critical"
	case priority <= 25:
		return "High"
	case priority <= 50:
		return "Medium"
	case priority <= 75:
		return "Low"
	}
	return "Very Low"
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
