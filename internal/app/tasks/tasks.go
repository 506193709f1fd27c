// Package tasks is the application service around the task store: input
// validation, status transitions, successor creation for recurring tasks,
// and the ranked listing views.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tasktrack/tasktrack/internal/app/recurrence"
	"github.com/tasktrack/tasktrack/internal/domain"
	"github.com/tasktrack/tasktrack/internal/infra/metrics"
)

// RetryConfig bounds successor-insert retries.
type RetryConfig struct {
	MaxRetries int           // Extra attempts after the first insert fails
	BaseDelay  time.Duration // Initial backoff delay (doubles each retry)
	MaxDelay   time.Duration // Cap on backoff delay
}

// DefaultRetryConfig returns production retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
	}
}

// Service manages tasks on top of a TaskStore.
type Service struct {
	store domain.TaskStore
	retry RetryConfig
	now   func() time.Time
	debug bool
}

// NewService creates a task service.
func NewService(store domain.TaskStore, retry RetryConfig) *Service {
	return &Service{store: store, retry: retry, now: time.Now}
}

// SetClock replaces the time source. Tests use it to pin "now".
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SetDebug enables debug log lines.
func (s *Service) SetDebug(on bool) { s.debug = on }

// Now returns the service's current time.
func (s *Service) Now() time.Time { return s.now() }

// UpdateResult is the outcome of an update. AdvanceErr reports a failed
// successor insert; the update itself has committed regardless.
type UpdateResult struct {
	Task       domain.Task
	Successor  *domain.Task
	AdvanceErr error
}

// ─── CRUD ───────────────────────────────────────────────────────────────────

// Create validates nt, applies defaults and stores a pending task. A zero
// Priority, RecurrenceTypeID or RecurrenceInterval means "use the default";
// callers that accept explicit values check them with ValidatePriority and
// ValidateInterval first.
func (s *Service) Create(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	nt.Title = strings.TrimSpace(nt.Title)
	if nt.Priority == 0 {
		nt.Priority = domain.DefaultPriority
	}
	if nt.RecurrenceTypeID == 0 {
		nt.RecurrenceTypeID = domain.RecurrenceNoneID
	}
	if nt.RecurrenceInterval == 0 {
		nt.RecurrenceInterval = 1
	}

	if err := validate(nt.Title, nt.Priority, nt.EstimatedDuration, nt.RecurrenceInterval, domain.TaskPending); err != nil {
		return domain.Task{}, err
	}
	if err := s.checkRecurrenceID(ctx, nt.RecurrenceTypeID); err != nil {
		return domain.Task{}, err
	}

	t, err := s.store.InsertTask(ctx, nt, s.now())
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	metrics.TasksCreated.WithLabelValues("manual").Inc()
	return t, nil
}

// Get returns a single task.
func (s *Service) Get(ctx context.Context, id string) (domain.Task, error) {
	return s.store.GetTask(ctx, id)
}

// Delete removes a task unconditionally.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	metrics.TasksDeleted.Inc()
	return nil
}

// Update applies a partial update. When it moves the task into completed,
// the successor of a recurring task is created from the row as it was before
// the update. Completed is terminal, so this happens at most once per task.
func (s *Service) Update(ctx context.Context, id string, p domain.TaskPatch) (UpdateResult, error) {
	if p.Title != nil {
		trimmed := strings.TrimSpace(*p.Title)
		p.Title = &trimmed
	}
	if p.RecurrenceTypeID != nil {
		if err := s.checkRecurrenceID(ctx, *p.RecurrenceTypeID); err != nil {
			return UpdateResult{}, err
		}
	}

	now := s.now()
	before, after, err := s.store.UpdateTask(ctx, id, func(cur domain.Task) (domain.Task, error) {
		if p.Status != nil && !cur.Status.CanTransition(*p.Status) {
			return cur, fmt.Errorf("%w: task is completed; status cannot change to %q", domain.ErrInvalidTask, *p.Status)
		}
		next := p.Apply(cur, now)
		return next, validate(next.Title, next.Priority, next.EstimatedDuration, next.RecurrenceInterval, next.Status)
	})
	if err != nil {
		return UpdateResult{}, err
	}

	res := UpdateResult{Task: after}
	if before.Status != domain.TaskCompleted && after.Status == domain.TaskCompleted {
		metrics.TasksCompleted.Inc()
		res.Successor, res.AdvanceErr = s.advance(ctx, before)
	}
	return res, nil
}

// Complete marks a task completed.
func (s *Service) Complete(ctx context.Context, id string) (UpdateResult, error) {
	st := domain.TaskCompleted
	return s.Update(ctx, id, domain.TaskPatch{Status: &st})
}

// RecurrenceTypes lists the recurrence lookup table.
func (s *Service) RecurrenceTypes(ctx context.Context) ([]domain.RecurrenceType, error) {
	return s.store.RecurrenceTypes(ctx)
}

// ─── Recurrence ─────────────────────────────────────────────────────────────

func (s *Service) advance(ctx context.Context, src domain.Task) (*domain.Task, error) {
	name, err := s.store.LookupRecurrenceName(ctx, src.RecurrenceTypeID)
	if errors.Is(err, domain.ErrUnknownRecurrence) {
		log.Printf("[tasks] task %s has unresolved recurrence type %d, no successor", src.ID, src.RecurrenceTypeID)
		return nil, nil
	}
	if err != nil {
		metrics.SuccessorFailures.Inc()
		return nil, fmt.Errorf("%w: lookup recurrence: %w", domain.ErrSuccessorFailed, err)
	}

	next, ok := recurrence.Advance(src, name)
	if !ok {
		if domain.ParseRecurrence(name) != domain.RecurNone {
			metrics.RecurrencesEnded.Inc()
			log.Printf("[tasks] recurrence of task %s ended (end date %v)", src.ID, src.RecurrenceEndDate)
		}
		return nil, nil
	}

	succ, err := s.insertWithRetry(ctx, *next)
	if err != nil {
		metrics.SuccessorFailures.Inc()
		log.Printf("[tasks] successor for task %s failed: %v", src.ID, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrSuccessorFailed, err)
	}
	metrics.TasksCreated.WithLabelValues("recurrence").Inc()
	if s.debug {
		log.Printf("[tasks] task %s completed, successor %s (%s)", src.ID, succ.ID, name)
	}
	return &succ, nil
}

// insertWithRetry retries with exponential backoff: BaseDelay * 2^(attempt-1),
// capped at MaxDelay.
func (s *Service) insertWithRetry(ctx context.Context, nt domain.NewTask) (domain.Task, error) {
	var lastErr error
	delay := s.retry.BaseDelay
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.Task{}, fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(delay):
			}
			delay *= 2
			if s.retry.MaxDelay > 0 && delay > s.retry.MaxDelay {
				delay = s.retry.MaxDelay
			}
		}
		t, err := s.store.InsertTask(ctx, nt, s.now())
		if err == nil {
			return t, nil
		}
		lastErr = err
		if s.debug {
			log.Printf("[tasks] successor insert attempt %d failed: %v", attempt+1, err)
		}
	}
	return domain.Task{}, lastErr
}

// ─── Validation ─────────────────────────────────────────────────────────────

// ValidatePriority rejects priorities outside [1, 100].
func ValidatePriority(priority int) error {
	if priority < 1 || priority > 100 {
		return fmt.Errorf("%w: priority must be between 1 and 100, got %d", domain.ErrInvalidTask, priority)
	}
	return nil
}

// ValidateInterval rejects recurrence intervals below 1.
func ValidateInterval(interval int) error {
	if interval < 1 {
		return fmt.Errorf("%w: recurrence interval must be at least 1, got %d", domain.ErrInvalidTask, interval)
	}
	return nil
}

func validate(title string, priority int, estimate *int, interval int, status domain.TaskStatus) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidTask)
	}
	if err := ValidatePriority(priority); err != nil {
		return err
	}
	if estimate != nil && *estimate <= 0 {
		return fmt.Errorf("%w: estimated duration must be positive, got %d", domain.ErrInvalidTask, *estimate)
	}
	if err := ValidateInterval(interval); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTask, status)
	}
	return nil
}

func (s *Service) checkRecurrenceID(ctx context.Context, id int) error {
	if _, err := s.store.LookupRecurrenceName(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUnknownRecurrence) {
			return fmt.Errorf("%w: %w", domain.ErrInvalidTask, err)
		}
		return err
	}
	return nil
}
