package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tasktrack/tasktrack/internal/infra/metrics"
	"github.com/tasktrack/tasktrack/internal/infra/sqlite"
)

func newTestDB(t *testing.T) (*sqlite.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dir
}

func statusOf(t *testing.T, c *Checker, name string) Status {
	t.Helper()
	for _, s := range c.Statuses() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("check %q not found in statuses", name)
	return Status{}
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	db, dir := newTestDB(t)
	c := NewChecker(db, dir)
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
	if c.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", c.interval, DefaultInterval)
	}
}

func TestChecker_RunOnceHealthy(t *testing.T) {
	db, dir := newTestDB(t)
	c := NewChecker(db, dir)
	c.RunOnce(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
	if got := testutil.ToFloat64(metrics.HealthCheckStatus.WithLabelValues("sqlite")); got != 1 {
		t.Errorf("health_check_status{check=sqlite} = %v, want 1", got)
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	db, dir := newTestDB(t)
	c := NewChecker(db, dir)
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run")
	}
}

func TestChecker_SQLiteClosed(t *testing.T) {
	db, dir := newTestDB(t)
	c := NewChecker(db, dir)
	db.Close()
	c.RunOnce(context.Background())

	if s := statusOf(t, c, "sqlite"); s.Healthy {
		t.Error("sqlite check should fail on a closed database")
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false")
	}
}

func TestChecker_DataDirIsFile(t *testing.T) {
	db, _ := newTestDB(t)
	path := filepath.Join(t.TempDir(), "data")
	os.WriteFile(path, []byte("not a dir"), 0o644)

	c := NewChecker(db, path)
	c.RunOnce(context.Background())

	if s := statusOf(t, c, "data_dir"); s.Healthy {
		t.Error("data_dir should fail when path is a file")
	}
}

func TestChecker_DataDirRecovers(t *testing.T) {
	db, _ := newTestDB(t)
	path := filepath.Join(t.TempDir(), "missing")

	c := NewChecker(db, path)
	c.RunOnce(context.Background())
	if s := statusOf(t, c, "data_dir"); s.Healthy {
		t.Fatal("first round should report the missing dir")
	}

	c.RunOnce(context.Background())
	if s := statusOf(t, c, "data_dir"); !s.Healthy {
		t.Errorf("second round should pass after recovery, got %s", s.Error)
	}
}

func TestChecker_FailingCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{
				Name: "always_fail",
				CheckFn: func(ctx context.Context) error {
					return os.ErrPermission
				},
			},
		},
	}
	c.RunOnce(context.Background())

	statuses := c.Statuses()
	if statuses[0].Healthy {
		t.Error("always_fail check should not be healthy")
	}
	if statuses[0].Error == "" {
		t.Error("error message should be populated")
	}
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	calls := make(chan struct{}, 16)
	c := &Checker{
		interval: time.Millisecond,
		checks: []Check{{
			Name: "count",
			CheckFn: func(ctx context.Context) error {
				select {
				case calls <- struct{}{}:
				default:
				}
				return errors.New("still counting")
			},
		}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	<-calls
	<-calls
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	db, dir := newTestDB(t)
	c := NewChecker(db, dir)
	c.RunOnce(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()
	s1[0].Healthy = false
	if !s2[0].Healthy {
		t.Error("Statuses() should return a copy, not a reference")
	}
}
