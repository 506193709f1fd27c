package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tasktrack/tasktrack/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Second precision matches storage.
var created = time.Date(2025, 10, 1, 8, 0, 0, 0, time.Local)

func ptr[T any](v T) *T { return &v }

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, FileName)); os.IsNotExist(err) {
		t.Errorf("%s should exist", FileName)
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	if _, err := db.InsertTask(context.Background(), domain.NewTask{Title: "keep", Priority: 50, RecurrenceTypeID: 1, RecurrenceInterval: 1}, created); err != nil {
		t.Fatalf("InsertTask() error: %v", err)
	}
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	defer db.Close()

	tasks, err := db.QueryTasks(context.Background(), domain.TaskFilter{})
	if err != nil {
		t.Fatalf("QueryTasks() error: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("tasks after reopen = %d, want 1", len(tasks))
	}
}

// ─── Recurrence Types ───────────────────────────────────────────────────────

func TestRecurrenceTypes_Seeded(t *testing.T) {
	db := newTestDB(t)
	got, err := db.RecurrenceTypes(context.Background())
	if err != nil {
		t.Fatalf("RecurrenceTypes() error: %v", err)
	}
	want := []domain.RecurrenceType{
		{ID: 1, Name: "none"}, {ID: 2, Name: "daily"}, {ID: 3, Name: "weekly"},
		{ID: 4, Name: "monthly"}, {ID: 5, Name: "yearly"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recurrence types mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupRecurrenceName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	name, err := db.LookupRecurrenceName(ctx, 4)
	if err != nil {
		t.Fatalf("LookupRecurrenceName(4) error: %v", err)
	}
	if name != "monthly" {
		t.Errorf("LookupRecurrenceName(4) = %q, want monthly", name)
	}

	if _, err := db.LookupRecurrenceName(ctx, 42); !errors.Is(err, domain.ErrUnknownRecurrence) {
		t.Errorf("LookupRecurrenceName(42) error = %v, want ErrUnknownRecurrence", err)
	}
}

// ─── Task CRUD ──────────────────────────────────────────────────────────────

func TestInsertTask_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	nt := domain.NewTask{
		Title:              "File taxes",
		Description:        "federal + state",
		EstimatedDuration:  ptr(90),
		Priority:           12,
		Deadline:           ptr(time.Date(2026, 4, 15, 17, 0, 0, 0, time.Local)),
		PlannedDate:        ptr(time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)),
		RecurrenceTypeID:   5,
		RecurrenceInterval: 1,
		RecurrenceEndDate:  ptr(time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local)),
	}
	got, err := db.InsertTask(ctx, nt, created)
	if err != nil {
		t.Fatalf("InsertTask() error: %v", err)
	}
	if got.ID == "" {
		t.Fatal("InsertTask() returned empty ID")
	}

	want := domain.Task{
		ID:                 got.ID,
		Title:              nt.Title,
		Description:        nt.Description,
		EstimatedDuration:  ptr(90),
		Priority:           12,
		Deadline:           nt.Deadline,
		PlannedDate:        nt.PlannedDate,
		RecurrenceTypeID:   5,
		RecurrenceType:     "yearly",
		RecurrenceInterval: 1,
		RecurrenceEndDate:  nt.RecurrenceEndDate,
		Status:             domain.TaskPending,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertTask_UniqueIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		tk, err := db.InsertTask(ctx, domain.NewTask{Title: "x", Priority: 50, RecurrenceTypeID: 1, RecurrenceInterval: 1}, created)
		if err != nil {
			t.Fatalf("InsertTask() error: %v", err)
		}
		if seen[tk.ID] {
			t.Fatalf("duplicate id %q", tk.ID)
		}
		seen[tk.ID] = true
	}
}

func TestInsertTask_RejectsBadPriority(t *testing.T) {
	db := newTestDB(t)
	_, err := db.InsertTask(context.Background(), domain.NewTask{Title: "x", Priority: 0, RecurrenceTypeID: 1, RecurrenceInterval: 1}, created)
	if err == nil {
		t.Error("InsertTask() with priority 0 should fail the CHECK constraint")
	}
}

func TestGetTask_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetTask(context.Background(), "missing")
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("GetTask() error = %v, want ErrTaskNotFound", err)
	}
}

func TestUpdateTask_ReturnsBeforeAndAfter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tk, _ := db.InsertTask(ctx, domain.NewTask{Title: "draft", Priority: 50, RecurrenceTypeID: 1, RecurrenceInterval: 1}, created)

	later := created.Add(time.Hour)
	before, after, err := db.UpdateTask(ctx, tk.ID, func(cur domain.Task) (domain.Task, error) {
		cur.Title = "final"
		cur.Status = domain.TaskCompleted
		cur.CompletedAt = &later
		cur.UpdatedAt = later
		return cur, nil
	})
	if err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	if before.Title != "draft" || before.Status != domain.TaskPending {
		t.Errorf("before = %q/%s, want draft/pending", before.Title, before.Status)
	}
	if after.Title != "final" || after.Status != domain.TaskCompleted {
		t.Errorf("after = %q/%s, want final/completed", after.Title, after.Status)
	}
	if after.CompletedAt == nil || !after.CompletedAt.Equal(later) {
		t.Errorf("CompletedAt = %v, want %v", after.CompletedAt, later)
	}
}

func TestUpdateTask_CallbackErrorRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tk, _ := db.InsertTask(ctx, domain.NewTask{Title: "keep", Priority: 50, RecurrenceTypeID: 1, RecurrenceInterval: 1}, created)

	boom := errors.New("boom")
	_, _, err := db.UpdateTask(ctx, tk.ID, func(cur domain.Task) (domain.Task, error) {
		return cur, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("UpdateTask() error = %v, want boom", err)
	}

	// The connection must be usable again after rollback.
	got, err := db.GetTask(ctx, tk.ID)
	if err != nil {
		t.Fatalf("GetTask() after rollback error: %v", err)
	}
	if got.Title != "keep" {
		t.Errorf("Title = %q, want keep", got.Title)
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, _, err := db.UpdateTask(context.Background(), "missing", func(cur domain.Task) (domain.Task, error) {
		return cur, nil
	})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("UpdateTask() error = %v, want ErrTaskNotFound", err)
	}
}

func TestDeleteTask(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tk, _ := db.InsertTask(ctx, domain.NewTask{Title: "gone", Priority: 50, RecurrenceTypeID: 1, RecurrenceInterval: 1}, created)

	if err := db.DeleteTask(ctx, tk.ID); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}
	if err := db.DeleteTask(ctx, tk.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("second DeleteTask() error = %v, want ErrTaskNotFound", err)
	}
}

// ─── Queries ────────────────────────────────────────────────────────────────

func TestQueryTasks_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insert := func(title, desc string, prio int, offset time.Duration) domain.Task {
		tk, err := db.InsertTask(ctx, domain.NewTask{Title: title, Description: desc, Priority: prio, RecurrenceTypeID: 1, RecurrenceInterval: 1}, created.Add(offset))
		if err != nil {
			t.Fatalf("InsertTask(%s) error: %v", title, err)
		}
		return tk
	}
	insert("Buy milk", "", 80, 0)
	report := insert("Write report", "100% done soon", 20, time.Minute)
	insert("Call mom", "weekly call", 40, 2*time.Minute)

	_, _, err := db.UpdateTask(ctx, report.ID, func(cur domain.Task) (domain.Task, error) {
		cur.Status = domain.TaskInProgress
		return cur, nil
	})
	if err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}

	titles := func(ts []domain.Task) []string {
		out := []string{}
		for _, tk := range ts {
			out = append(out, tk.Title)
		}
		return out
	}

	tests := []struct {
		name   string
		filter domain.TaskFilter
		want   []string
	}{
		{"all in creation order", domain.TaskFilter{}, []string{"Buy milk", "Write report", "Call mom"}},
		{"status", domain.TaskFilter{Statuses: []domain.TaskStatus{domain.TaskInProgress}}, []string{"Write report"}},
		{"priority range", domain.TaskFilter{PriorityMin: 30, PriorityMax: 80}, []string{"Buy milk", "Call mom"}},
		{"search title", domain.TaskFilter{Search: "MILK"}, []string{"Buy milk"}},
		{"search description", domain.TaskFilter{Search: "weekly"}, []string{"Call mom"}},
		{"search escapes percent", domain.TaskFilter{Search: "100%"}, []string{"Write report"}},
		{"no match", domain.TaskFilter{Search: "nothing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.QueryTasks(ctx, tt.filter)
			if err != nil {
				t.Fatalf("QueryTasks() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, titles(got)); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
