package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasktrack/tasktrack/internal/domain"
)

// ─── Task Repository ────────────────────────────────────────────────────────

const taskColumns = `t.id, t.title, t.description, t.estimated_duration, t.priority,
	t.deadline, t.planned_date, t.recurrence_type_id, COALESCE(rt.name, 'none'),
	t.recurrence_interval, t.recurrence_end_date, t.status, t.completed_at,
	t.created_at, t.updated_at`

const taskFrom = ` FROM tasks t LEFT JOIN recurrence_types rt ON rt.id = t.recurrence_type_id`

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InsertTask creates a pending task with a fresh uuid.
func (d *DB) InsertTask(ctx context.Context, nt domain.NewTask, createdAt time.Time) (domain.Task, error) {
	id := uuid.NewString()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, estimated_duration, priority, deadline, planned_date,
			recurrence_type_id, recurrence_interval, recurrence_end_date, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nt.Title, nt.Description, nullableInt(nt.EstimatedDuration), nt.Priority,
		nullableUnix(nt.Deadline), nullableUnix(nt.PlannedDate),
		nt.RecurrenceTypeID, nt.RecurrenceInterval, nullableUnix(nt.RecurrenceEndDate),
		string(domain.TaskPending), createdAt.Unix(), createdAt.Unix(),
	)
	if err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return d.GetTask(ctx, id)
}

// GetTask retrieves a task by ID.
func (d *DB) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return getTask(ctx, d.db, id)
}

func getTask(ctx context.Context, q queryRower, id string) (domain.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, err
}

// UpdateTask reads the row, applies fn and writes the result back inside
// one transaction. before is the committed state fn saw.
func (d *DB) UpdateTask(ctx context.Context, id string, fn func(domain.Task) (domain.Task, error)) (before, after domain.Task, err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return before, after, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	before, err = getTask(ctx, tx, id)
	if err != nil {
		return before, after, err
	}
	next, err := fn(before)
	if err != nil {
		return before, after, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, estimated_duration = ?, priority = ?,
			deadline = ?, planned_date = ?, recurrence_type_id = ?, recurrence_interval = ?,
			recurrence_end_date = ?, status = ?, completed_at = ?, updated_at = ?
		 WHERE id = ?`,
		next.Title, next.Description, nullableInt(next.EstimatedDuration), next.Priority,
		nullableUnix(next.Deadline), nullableUnix(next.PlannedDate),
		next.RecurrenceTypeID, next.RecurrenceInterval, nullableUnix(next.RecurrenceEndDate),
		string(next.Status), nullableUnix(next.CompletedAt), next.UpdatedAt.Unix(),
		id,
	)
	if err != nil {
		return before, after, fmt.Errorf("update task: %w", err)
	}

	after, err = getTask(ctx, tx, id)
	if err != nil {
		return before, after, err
	}
	if err = tx.Commit(); err != nil {
		return before, after, fmt.Errorf("commit: %w", err)
	}
	return before, after, nil
}

// DeleteTask removes a task record.
func (d *DB) DeleteTask(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// QueryTasks returns tasks matching f in creation order.
func (d *DB) QueryTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			marks[i] = "?"
			args = append(args, string(s))
		}
		where = append(where, "t.status IN ("+strings.Join(marks, ", ")+")")
	}
	if f.PriorityMin > 0 {
		where = append(where, "t.priority >= ?")
		args = append(args, f.PriorityMin)
	}
	if f.PriorityMax > 0 {
		where = append(where, "t.priority <= ?")
		args = append(args, f.PriorityMax)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		where = append(where, `(t.title LIKE ? ESCAPE '\' OR t.description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + taskColumns + taskFrom
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.created_at ASC, t.rowid ASC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ─── Recurrence Types ───────────────────────────────────────────────────────

// LookupRecurrenceName resolves a recurrence type id to its name.
func (d *DB) LookupRecurrenceName(ctx context.Context, id int) (string, error) {
	var name string
	err := d.db.QueryRowContext(ctx, `SELECT name FROM recurrence_types WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: id %d", domain.ErrUnknownRecurrence, id)
	}
	return name, err
}

// RecurrenceTypes lists the lookup table ordered by id.
func (d *DB) RecurrenceTypes(ctx context.Context) ([]domain.RecurrenceType, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, name FROM recurrence_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RecurrenceType
	for rows.Next() {
		var rt domain.RecurrenceType
		if err := rows.Scan(&rt.ID, &rt.Name); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// ─── Scanning ───────────────────────────────────────────────────────────────

func scanTask(s scanner) (domain.Task, error) {
	var t domain.Task
	var status string
	var estimate, deadline, planned, recurEnd, completedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := s.Scan(&t.ID, &t.Title, &t.Description, &estimate, &t.Priority,
		&deadline, &planned, &t.RecurrenceTypeID, &t.RecurrenceType,
		&t.RecurrenceInterval, &recurEnd, &status, &completedAt,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.Task{}, err
	}

	t.Status = domain.TaskStatus(status)
	t.EstimatedDuration = intPtr(estimate)
	t.Deadline = timePtr(deadline)
	t.PlannedDate = timePtr(planned)
	t.RecurrenceEndDate = timePtr(recurEnd)
	t.CompletedAt = timePtr(completedAt)
	t.CreatedAt = time.Unix(createdAt, 0)
	t.UpdatedAt = time.Unix(updatedAt, 0)
	return t, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Compile-time check.
var _ domain.TaskStore = (*DB)(nil)
