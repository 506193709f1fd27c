// Package domain holds the task model shared by the scorer, the recurrence
// advancer, the store and the API. Domain types are pure: no infrastructure
// dependency.
package domain

import "time"

// TaskStatus tracks task lifecycle.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
	TaskOnHold     TaskStatus = "on_hold"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled, TaskOnHold:
		return true
	}
	return false
}

// IsActive returns true for statuses that still need work.
func (s TaskStatus) IsActive() bool {
	return s == TaskPending || s == TaskInProgress
}

// CanTransition reports whether a task may move from s to next. Completed is
// terminal for an instance; the next occurrence is a new task.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	return s != TaskCompleted || next == TaskCompleted
}

// Recurrence is the cadence that governs successor generation.
type Recurrence string

const (
	RecurNone    Recurrence = "none"
	RecurDaily   Recurrence = "daily"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
	RecurYearly  Recurrence = "yearly"
)

// ParseRecurrence maps a lookup-table name to a Recurrence.
// Anything unrecognised resolves to RecurNone.
func ParseRecurrence(name string) Recurrence {
	switch Recurrence(name) {
	case RecurDaily, RecurWeekly, RecurMonthly, RecurYearly:
		return Recurrence(name)
	}
	return RecurNone
}

// RecurrenceNoneID is the lookup id of the "none" recurrence type.
const RecurrenceNoneID = 1

// DefaultPriority is applied when a task is created without one.
const DefaultPriority = 50

// RecurrenceType is a row of the recurrence lookup table.
type RecurrenceType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Task is a persisted task record.
type Task struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	EstimatedDuration  *int       `json:"estimated_duration"`
	Priority           int        `json:"priority"`
	Deadline           *time.Time `json:"deadline"`
	PlannedDate        *time.Time `json:"planned_date"`
	RecurrenceTypeID   int        `json:"recurrence_type_id"`
	RecurrenceType     string     `json:"recurrence_type"`
	RecurrenceInterval int        `json:"recurrence_interval"`
	RecurrenceEndDate  *time.Time `json:"recurrence_end_date"`
	Status             TaskStatus `json:"status"`
	CompletedAt        *time.Time `json:"completed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CompletionMinutes returns whole minutes from creation to completion.
// The second result is false when the task has not been completed.
func (t *Task) CompletionMinutes() (int, bool) {
	if t.CompletedAt == nil {
		return 0, false
	}
	return int(t.CompletedAt.Sub(t.CreatedAt).Minutes()), true
}

// NewTask is the creation payload for a task. The store assigns the id,
// the pending status and the timestamps.
type NewTask struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	EstimatedDuration  *int       `json:"estimated_duration"`
	Priority           int        `json:"priority"`
	Deadline           *time.Time `json:"deadline"`
	PlannedDate        *time.Time `json:"planned_date"`
	RecurrenceTypeID   int        `json:"recurrence_type_id"`
	RecurrenceInterval int        `json:"recurrence_interval"`
	RecurrenceEndDate  *time.Time `json:"recurrence_end_date"`
}

// TaskPatch is a partial update. A nil field is left untouched; the Clear*
// flags null out an optional column.
type TaskPatch struct {
	Title              *string
	Description        *string
	EstimatedDuration  *int
	ClearEstimate      bool
	Priority           *int
	Deadline           *time.Time
	ClearDeadline      bool
	PlannedDate        *time.Time
	ClearPlannedDate   bool
	Status             *TaskStatus
	RecurrenceTypeID   *int
	RecurrenceInterval *int
	RecurrenceEndDate  *time.Time
	ClearRecurrenceEnd bool
}

// Apply returns a copy of t with the patch applied. completed_at is set to
// now on entering completed. Apply does not check the transition; see
// CanTransition.
func (p TaskPatch) Apply(t Task, now time.Time) Task {
	out := t
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.ClearEstimate {
		out.EstimatedDuration = nil
	} else if p.EstimatedDuration != nil {
		v := *p.EstimatedDuration
		out.EstimatedDuration = &v
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.ClearDeadline {
		out.Deadline = nil
	} else if p.Deadline != nil {
		v := *p.Deadline
		out.Deadline = &v
	}
	if p.ClearPlannedDate {
		out.PlannedDate = nil
	} else if p.PlannedDate != nil {
		v := *p.PlannedDate
		out.PlannedDate = &v
	}
	if p.RecurrenceTypeID != nil {
		out.RecurrenceTypeID = *p.RecurrenceTypeID
	}
	if p.RecurrenceInterval != nil {
		out.RecurrenceInterval = *p.RecurrenceInterval
	}
	if p.ClearRecurrenceEnd {
		out.RecurrenceEndDate = nil
	} else if p.RecurrenceEndDate != nil {
		v := *p.RecurrenceEndDate
		out.RecurrenceEndDate = &v
	}
	if p.Status != nil {
		prev := out.Status
		out.Status = *p.Status
		if out.Status == TaskCompleted && prev != TaskCompleted {
			at := now
			out.CompletedAt = &at
		}
	}
	out.UpdatedAt = now
	return out
}

// Urgency statuses.
type UrgencyStatus string

const (
	UrgencyOverdue      UrgencyStatus = "overdue"
	UrgencyDueToday     UrgencyStatus = "due_today"
	UrgencyDueSoon      UrgencyStatus = "due_soon"
	UrgencyPlannedToday UrgencyStatus = "planned_today"
	UrgencyNormal       UrgencyStatus = "normal"
)

// Urgency is the derived ranking of a task. Never stored.
type Urgency struct {
	Score  float64       `json:"score"`
	Status UrgencyStatus `json:"status"`
}

// TaskStats summarises the task table.
type TaskStats struct {
	Total                int     `json:"total_tasks"`
	Pending              int     `json:"pending_tasks"`
	InProgress           int     `json:"in_progress_tasks"`
	Completed            int     `json:"completed_tasks"`
	Cancelled            int     `json:"cancelled_tasks"`
	OnHold               int     `json:"on_hold_tasks"`
	Overdue              int     `json:"overdue_tasks"`
	DueToday             int     `json:"due_today_tasks"`
	AvgCompletionMinutes float64 `json:"avg_completion_minutes"`
}
