package tasks

import (
	"context"
	"sort"
	"time"

	"github.com/tasktrack/tasktrack/internal/app/urgency"
	"github.com/tasktrack/tasktrack/internal/domain"
	"github.com/tasktrack/tasktrack/internal/infra/metrics"
)

// ListQuery holds the listing filters. Empty Statuses means active tasks.
type ListQuery struct {
	Statuses      []domain.TaskStatus
	PriorityMin   int
	PriorityMax   int
	UrgencyStatus domain.UrgencyStatus
	Search        string
	OrderBy       string
	OrderDir      string
	Limit         int
}

var activeStatuses = []domain.TaskStatus{domain.TaskPending, domain.TaskInProgress}

// List returns ranked tasks: overdue first, then by the requested field.
func (s *Service) List(ctx context.Context, q ListQuery) ([]urgency.Ranked, error) {
	start := time.Now()
	defer func() { metrics.ListLatency.WithLabelValues("all").Observe(time.Since(start).Seconds()) }()

	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = activeStatuses
	}
	rows, err := s.store.QueryTasks(ctx, domain.TaskFilter{
		Statuses:    statuses,
		PriorityMin: q.PriorityMin,
		PriorityMax: q.PriorityMax,
		Search:      q.Search,
	})
	if err != nil {
		return nil, err
	}

	ranked := urgency.Rank(rows, s.now())
	if q.UrgencyStatus != "" {
		kept := ranked[:0]
		for _, r := range ranked {
			if r.Urgency.Status == q.UrgencyStatus {
				kept = append(kept, r)
			}
		}
		ranked = kept
	}

	field, dir := urgency.ParseSort(q.OrderBy, q.OrderDir)
	urgency.Sort(ranked, field, dir)

	if q.Limit > 0 && len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	return ranked, nil
}

func (s *Service) active(ctx context.Context) ([]urgency.Ranked, time.Time, error) {
	rows, err := s.store.QueryTasks(ctx, domain.TaskFilter{Statuses: activeStatuses})
	if err != nil {
		return nil, time.Time{}, err
	}
	now := s.now()
	return urgency.Rank(rows, now), now, nil
}

// Today returns active tasks due or planned today plus overdue ones,
// overdue first then by score.
func (s *Service) Today(ctx context.Context) ([]urgency.Ranked, error) {
	all, now, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	today := urgency.StartOfDay(now)
	onToday := func(t *time.Time) bool {
		return t != nil && urgency.StartOfDay(t.In(now.Location())).Equal(today)
	}

	var out []urgency.Ranked
	for _, r := range all {
		if r.Urgency.Status == domain.UrgencyOverdue || onToday(r.Deadline) || onToday(r.PlannedDate) {
			out = append(out, r)
		}
	}
	urgency.Sort(out, urgency.ByScore, urgency.Desc)
	return out, nil
}

// Upcoming returns active tasks whose deadline or planned date falls in the
// next seven days, soonest first.
func (s *Service) Upcoming(ctx context.Context) ([]urgency.Ranked, error) {
	all, now, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	horizon := now.AddDate(0, 0, 7)
	within := func(t *time.Time) bool {
		return t != nil && t.After(now) && !t.After(horizon)
	}

	var out []urgency.Ranked
	for _, r := range all {
		if within(r.Deadline) || within(r.PlannedDate) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi := out[i].Urgency.Status == domain.UrgencyOverdue
		oj := out[j].Urgency.Status == domain.UrgencyOverdue
		if oi != oj {
			return oi
		}
		di, dj := nextDate(out[i].Task), nextDate(out[j].Task)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].Priority < out[j].Priority
	})
	return out, nil
}

// Deadline if set, otherwise the planned date.
func nextDate(t domain.Task) time.Time {
	if t.Deadline != nil {
		return *t.Deadline
	}
	return *t.PlannedDate
}

// Overdue returns active tasks past their deadline, longest overdue first,
// then by priority.
func (s *Service) Overdue(ctx context.Context) ([]urgency.Ranked, error) {
	all, now, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	var out []urgency.Ranked
	for _, r := range all {
		if r.Urgency.Status == domain.UrgencyOverdue {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := DaysOverdue(out[i].Task, now), DaysOverdue(out[j].Task, now)
		if di != dj {
			return di > dj
		}
		return out[i].Priority < out[j].Priority
	})
	return out, nil
}

// DaysOverdue counts whole calendar days between the deadline and now.
func DaysOverdue(t domain.Task, now time.Time) int {
	if t.Deadline == nil || !t.Deadline.Before(now) {
		return 0
	}
	from := urgency.StartOfDay(t.Deadline.In(now.Location()))
	to := urgency.StartOfDay(now)
	return int(to.Sub(from).Hours()+12) / 24
}

// Stats summarises the whole task table at the current time.
func (s *Service) Stats(ctx context.Context) (domain.TaskStats, error) {
	rows, err := s.store.QueryTasks(ctx, domain.TaskFilter{})
	if err != nil {
		return domain.TaskStats{}, err
	}
	now := s.now()

	var st domain.TaskStats
	var completedMinutes, completedCount int
	for _, t := range rows {
		st.Total++
		switch t.Status {
		case domain.TaskPending:
			st.Pending++
		case domain.TaskInProgress:
			st.InProgress++
		case domain.TaskCompleted:
			st.Completed++
		case domain.TaskCancelled:
			st.Cancelled++
		case domain.TaskOnHold:
			st.OnHold++
		}
		if m, ok := t.CompletionMinutes(); ok {
			completedMinutes += m
			completedCount++
		}
		if !t.Status.IsActive() {
			continue
		}
		switch urgency.ScoreTask(t, now).Status {
		case domain.UrgencyOverdue:
			st.Overdue++
		case domain.UrgencyDueToday:
			st.DueToday++
		}
	}
	if completedCount > 0 {
		st.AvgCompletionMinutes = float64(completedMinutes) / float64(completedCount)
	}
	metrics.TasksActive.Set(float64(st.Pending + st.InProgress))
	return st, nil
}
