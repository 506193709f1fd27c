package urgency

import (
	"sort"
	"strings"
	"time"

	"github.com/tasktrack/tasktrack/internal/domain"
)

// Ranked pairs a task with its urgency at the listing's reference time.
type Ranked struct {
	domain.Task
	Urgency domain.Urgency
}

// Rank scores every task at now.
func Rank(tasks []domain.Task, now time.Time) []Ranked {
	out := make([]Ranked, len(tasks))
	for i, t := range tasks {
		out[i] = Ranked{Task: t, Urgency: ScoreTask(t, now)}
	}
	return out
}

// SortField names a sortable listing column.
type SortField string

const (
	ByScore       SortField = "urgency_score"
	ByPriority    SortField = "priority"
	ByDeadline    SortField = "deadline"
	ByPlannedDate SortField = "planned_date"
	ByCreatedAt   SortField = "created_at"
	ByTitle       SortField = "title"
	ByDescription SortField = "description"
)

// SortDir is ASC or DESC.
type SortDir string

const (
	Asc  SortDir = "ASC"
	Desc SortDir = "DESC"
)

// ParseSort validates caller input. Unknown fields fall back to score DESC;
// anything other than "asc" is DESC.
func ParseSort(field, dir string) (SortField, SortDir) {
	f := SortField(strings.ToLower(strings.TrimSpace(field)))
	switch f {
	case ByScore, ByPriority, ByDeadline, ByPlannedDate, ByCreatedAt, ByTitle, ByDescription:
	default:
		return ByScore, Desc
	}
	if strings.EqualFold(strings.TrimSpace(dir), string(Asc)) {
		return f, Asc
	}
	return f, Desc
}

// Sort orders items in place: overdue tasks first regardless of field or
// direction, then by field. The sort is stable so equal keys keep their
// incoming order.
func Sort(items []Ranked, field SortField, dir SortDir) {
	sort.SliceStable(items, func(i, j int) bool {
		oi := items[i].Urgency.Status == domain.UrgencyOverdue
		oj := items[j].Urgency.Status == domain.UrgencyOverdue
		if oi != oj {
			return oi
		}
		c := compareField(items[i], items[j], field)
		if dir == Asc {
			return c < 0
		}
		return c > 0
	})
}

func compareField(a, b Ranked, field SortField) int {
	switch field {
	case ByPriority:
		return compareInt(a.Priority, b.Priority)
	case ByDeadline:
		return compareTime(a.Deadline, b.Deadline)
	case ByPlannedDate:
		return compareTime(a.PlannedDate, b.PlannedDate)
	case ByCreatedAt:
		return compareTime(&a.CreatedAt, &b.CreatedAt)
	case ByTitle:
		return strings.Compare(a.Title, b.Title)
	case ByDescription:
		return strings.Compare(a.Description, b.Description)
	}
	switch {
	case a.Urgency.Score < b.Urgency.Score:
		return -1
	case a.Urgency.Score > b.Urgency.Score:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Missing dates are the smallest value: first ascending, last descending.
func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}
