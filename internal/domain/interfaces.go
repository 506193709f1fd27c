package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// Infrastructure implements them; the application layer depends on them.

// TaskStore abstracts persistent task storage.
// Implemented by infra/sqlite.DB.
type TaskStore interface {
	// InsertTask stores a new pending task created at the given time.
	InsertTask(ctx context.Context, t NewTask, createdAt time.Time) (Task, error)

	// GetTask returns ErrTaskNotFound when the id is unknown.
	GetTask(ctx context.Context, id string) (Task, error)

	// UpdateTask applies fn to the current row inside one transaction and
	// returns the row as it was before and after the write.
	UpdateTask(ctx context.Context, id string, fn func(Task) (Task, error)) (before, after Task, err error)

	DeleteTask(ctx context.Context, id string) error

	// QueryTasks returns tasks matching the filter, oldest first.
	QueryTasks(ctx context.Context, f TaskFilter) ([]Task, error)

	// LookupRecurrenceName resolves a recurrence type id.
	// Returns ErrUnknownRecurrence when the id is not in the lookup table.
	LookupRecurrenceName(ctx context.Context, id int) (string, error)

	RecurrenceTypes(ctx context.Context) ([]RecurrenceType, error)
}

// TaskFilter narrows QueryTasks. Zero values mean "no constraint".
type TaskFilter struct {
	Statuses    []TaskStatus
	PriorityMin int
	PriorityMax int
	Search      string
}
