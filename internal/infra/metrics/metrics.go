// Package metrics provides Prometheus metrics for tasktrack.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCreated counts inserted tasks by origin (manual, recurrence).
var TasksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tasktrack",
	Name:      "tasks_created_total",
	Help:      "Total tasks created, by origin.",
}, []string{"origin"})

// TasksCompleted counts transitions into the completed status.
var TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tasktrack",
	Name:      "tasks_completed_total",
	Help:      "Total tasks moved to completed.",
})

// TasksDeleted counts deletions.
var TasksDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tasktrack",
	Name:      "tasks_deleted_total",
	Help:      "Total tasks deleted.",
})

// TasksActive is the pending + in_progress count seen by the last stats call.
var TasksActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "tasktrack",
	Name:      "tasks_active",
	Help:      "Number of pending or in-progress tasks.",
})

// ─── Recurrence ─────────────────────────────────────────────────────────────

// SuccessorFailures counts completions whose successor could not be stored.
var SuccessorFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tasktrack",
	Name:      "successor_failures_total",
	Help:      "Recurring completions where the successor insert failed.",
})

// RecurrencesEnded counts completions that hit the recurrence end date.
var RecurrencesEnded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tasktrack",
	Name:      "recurrences_ended_total",
	Help:      "Recurring completions that produced no successor because the series ended.",
})

// ─── Listing ────────────────────────────────────────────────────────────────

// ListLatency tracks ranked listing duration in seconds.
var ListLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "tasktrack",
	Name:      "list_latency_seconds",
	Help:      "Ranked task listing duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
}, []string{"view"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "tasktrack",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
