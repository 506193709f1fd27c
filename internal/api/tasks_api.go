package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tasktrack/tasktrack/internal/app/tasks"
	"github.com/tasktrack/tasktrack/internal/app/urgency"
	"github.com/tasktrack/tasktrack/internal/domain"
)

// ─── Views ──────────────────────────────────────────────────────────────────

// taskView is a task plus the fields derived at read time.
type taskView struct {
	domain.Task
	UrgencyScore          float64              `json:"urgency_score"`
	UrgencyStatus         domain.UrgencyStatus `json:"urgency_status"`
	PriorityLabel         string               `json:"priority_label"`
	CompletionTimeMinutes *int                 `json:"completion_time_minutes"`
	DaysOverdue           int                  `json:"days_overdue,omitempty"`
}

func newTaskView(t domain.Task, u domain.Urgency) taskView {
	v := taskView{
		Task:          t,
		UrgencyScore:  u.Score,
		UrgencyStatus: u.Status,
		PriorityLabel: urgency.PriorityLabel(t.Priority),
	}
	if m, ok := t.CompletionMinutes(); ok {
		v.CompletionTimeMinutes = &m
	}
	return v
}

func (s *Server) view(t domain.Task) taskView {
	return newTaskView(t, urgency.ScoreTask(t, s.tasks.Now()))
}

func rankedViews(rs []urgency.Ranked) []taskView {
	out := make([]taskView, len(rs))
	for i, r := range rs {
		out[i] = newTaskView(r.Task, r.Urgency)
	}
	return out
}

// ─── Time Parsing ───────────────────────────────────────────────────────────

// inputLayouts are tried in order. Layouts without a zone are local time.
var inputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC3339 or a naive local date/time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised time %q", domain.ErrInvalidTask, s)
}

// flexTime unmarshals any layout ParseTime accepts.
type flexTime struct{ time.Time }

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: time must be a string", domain.ErrInvalidTask)
	}
	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

func (f *flexTime) ptr() *time.Time {
	if f == nil {
		return nil
	}
	t := f.Time
	return &t
}

// ─── Requests ───────────────────────────────────────────────────────────────

type createTaskRequest struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	EstimatedDuration  *int      `json:"estimated_duration"`
	Priority           *int      `json:"priority"`
	Deadline           *flexTime `json:"deadline"`
	PlannedDate        *flexTime `json:"planned_date"`
	RecurrenceTypeID   int       `json:"recurrence_type_id"`
	RecurrenceInterval *int      `json:"recurrence_interval"`
	RecurrenceEndDate  *flexTime `json:"recurrence_end_date"`
}

// toNewTask checks explicitly supplied numbers; absent ones are left zero so
// the service applies its defaults.
func (c createTaskRequest) toNewTask() (domain.NewTask, error) {
	nt := domain.NewTask{
		Title:             c.Title,
		Description:       c.Description,
		EstimatedDuration: c.EstimatedDuration,
		Deadline:          c.Deadline.ptr(),
		PlannedDate:       c.PlannedDate.ptr(),
		RecurrenceTypeID:  c.RecurrenceTypeID,
		RecurrenceEndDate: c.RecurrenceEndDate.ptr(),
	}
	if c.Priority != nil {
		if err := tasks.ValidatePriority(*c.Priority); err != nil {
			return nt, err
		}
		nt.Priority = *c.Priority
	}
	if c.RecurrenceInterval != nil {
		if err := tasks.ValidateInterval(*c.RecurrenceInterval); err != nil {
			return nt, err
		}
		nt.RecurrenceInterval = *c.RecurrenceInterval
	}
	return nt, nil
}

var jsonNull = []byte("null")

// decodePatch reads a partial update. Absent keys are untouched; an explicit
// null clears nullable columns.
func decodePatch(body []byte) (domain.TaskPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.TaskPatch{}, fmt.Errorf("%w: %v", domain.ErrInvalidTask, err)
	}

	var p domain.TaskPatch
	for key, val := range raw {
		isNull := bytes.Equal(bytes.TrimSpace(val), jsonNull)
		var err error
		switch key {
		case "title":
			p.Title, err = decodeField[string](key, val, isNull)
		case "description":
			p.Description, err = decodeField[string](key, val, isNull)
		case "priority":
			p.Priority, err = decodeField[int](key, val, isNull)
		case "recurrence_type_id":
			p.RecurrenceTypeID, err = decodeField[int](key, val, isNull)
		case "recurrence_interval":
			p.RecurrenceInterval, err = decodeField[int](key, val, isNull)
		case "status":
			var st *string
			if st, err = decodeField[string](key, val, isNull); err == nil && st != nil {
				status := domain.TaskStatus(*st)
				if !status.Valid() {
					return p, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTask, *st)
				}
				p.Status = &status
			}
		case "estimated_duration":
			if isNull {
				p.ClearEstimate = true
				continue
			}
			p.EstimatedDuration, err = decodeField[int](key, val, false)
		case "deadline":
			p.Deadline, p.ClearDeadline, err = decodeTimeField(val, isNull)
		case "planned_date":
			p.PlannedDate, p.ClearPlannedDate, err = decodeTimeField(val, isNull)
		case "recurrence_end_date":
			p.RecurrenceEndDate, p.ClearRecurrenceEnd, err = decodeTimeField(val, isNull)
		}
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

// decodeField rejects null for non-nullable columns.
func decodeField[T any](key string, val json.RawMessage, isNull bool) (*T, error) {
	if isNull {
		return nil, fmt.Errorf("%w: %s cannot be null", domain.ErrInvalidTask, key)
	}
	var v T
	if err := json.Unmarshal(val, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidTask, key, err)
	}
	return &v, nil
}

func decodeTimeField(val json.RawMessage, isNull bool) (*time.Time, bool, error) {
	if isNull {
		return nil, true, nil
	}
	var f flexTime
	if err := json.Unmarshal(val, &f); err != nil {
		return nil, false, err
	}
	return f.ptr(), false, nil
}

func parseListQuery(r *http.Request) (tasks.ListQuery, error) {
	q := r.URL.Query()
	lq := tasks.ListQuery{
		Search:   q.Get("search"),
		OrderBy:  q.Get("order_by"),
		OrderDir: q.Get("order_dir"),
	}

	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st := domain.TaskStatus(strings.TrimSpace(part))
			if !st.Valid() {
				return lq, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTask, part)
			}
			lq.Statuses = append(lq.Statuses, st)
		}
	}
	if raw := q.Get("urgency_status"); raw != "" {
		lq.UrgencyStatus = domain.UrgencyStatus(raw)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"priority_min", &lq.PriorityMin},
		{"priority_max", &lq.PriorityMax},
		{"limit", &lq.Limit},
	}
	for _, p := range ints {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return lq, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidTask, p.name)
		}
		*p.dst = n
	}
	return lq, nil
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ranked, err := s.tasks.List(r.Context(), lq)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, rankedViews(ranked), len(ranked))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	nt, err := req.toNewTask()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	t, err := s.tasks.Create(r.Context(), nt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, s.view(t), -1)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, s.view(t), -1)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := decodePatch(body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := s.tasks.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeUpdateResult(w, res)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	res, err := s.tasks.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.writeUpdateResult(w, res)
}

// writeUpdateResult answers 200 even when the successor failed; the update
// itself has committed.
func (s *Server) writeUpdateResult(w http.ResponseWriter, res tasks.UpdateResult) {
	body := map[string]any{
		"success": true,
		"data":    s.view(res.Task),
	}
	if res.Successor != nil {
		body["successor"] = s.view(*res.Successor)
	}
	if res.AdvanceErr != nil {
		body["successor_error"] = res.AdvanceErr.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.tasks.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id}, -1)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	ranked, err := s.tasks.Today(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, rankedViews(ranked), len(ranked))
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	ranked, err := s.tasks.Upcoming(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, rankedViews(ranked), len(ranked))
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	ranked, err := s.tasks.Overdue(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	now := s.tasks.Now()
	views := rankedViews(ranked)
	for i := range views {
		views[i].DaysOverdue = tasks.DaysOverdue(views[i].Task, now)
	}
	writeData(w, http.StatusOK, views, len(views))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.tasks.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, st, -1)
}

func (s *Server) handleRecurrenceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.tasks.RecurrenceTypes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, types, len(types))
}
