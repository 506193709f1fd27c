package urgency

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tasktrack/tasktrack/internal/domain"
)

func fixtureTasks() []domain.Task {
	created := now.Add(-48 * time.Hour)
	return []domain.Task{
		// Overdue but low priority: score 1 + 50 = 51.
		{ID: "late", Title: "b-late", Priority: 100, Deadline: at(-time.Hour), CreatedAt: created},
		// High priority, due in two days: 100 + 20 = 120.
		{ID: "urgent", Title: "a-urgent", Priority: 1, Deadline: at(48 * time.Hour), CreatedAt: created.Add(time.Minute)},
		// No dates: 51.
		{ID: "plain", Title: "c-plain", Priority: 50, CreatedAt: created.Add(2 * time.Minute)},
		// Second overdue item with a higher score: 91 + 50 = 141.
		{ID: "late2", Title: "d-late", Priority: 10, Deadline: at(-3 * time.Hour), CreatedAt: created.Add(3 * time.Minute)},
	}
}

func ids(items []Ranked) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSort_OverdueFirstEveryCombination(t *testing.T) {
	fields := []SortField{ByScore, ByPriority, ByDeadline, ByPlannedDate, ByCreatedAt, ByTitle, ByDescription}
	for _, f := range fields {
		for _, d := range []SortDir{Asc, Desc} {
			t.Run(string(f)+"_"+string(d), func(t *testing.T) {
				items := Rank(fixtureTasks(), now)
				Sort(items, f, d)
				seenActive := false
				for _, it := range items {
					overdue := it.Urgency.Status == domain.UrgencyOverdue
					if overdue && seenActive {
						t.Fatalf("overdue task %q after a non-overdue task: %v", it.ID, ids(items))
					}
					if !overdue {
						seenActive = true
					}
				}
			})
		}
	}
}

func TestSort_ScoreDesc(t *testing.T) {
	items := Rank(fixtureTasks(), now)
	Sort(items, ByScore, Desc)
	want := []string{"late2", "late", "urgent", "plain"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_TitleAsc(t *testing.T) {
	items := Rank(fixtureTasks(), now)
	Sort(items, ByTitle, Asc)
	want := []string{"late", "late2", "urgent", "plain"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_MissingDeadlineSortsLow(t *testing.T) {
	items := Rank(fixtureTasks(), now)
	Sort(items, ByDeadline, Asc)
	// Overdue block by deadline asc, then nil deadline before a future one.
	want := []string{"late2", "late", "plain", "urgent"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("asc order mismatch (-want +got):\n%s", diff)
	}

	Sort(items, ByDeadline, Desc)
	want = []string{"late", "late2", "urgent", "plain"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("desc order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		field, dir string
		wantF      SortField
		wantD      SortDir
	}{
		{"priority", "asc", ByPriority, Asc},
		{"PRIORITY", "ASC", ByPriority, Asc},
		{"deadline", "", ByDeadline, Desc},
		{"deadline; DROP TABLE tasks", "asc", ByScore, Desc},
		{"", "", ByScore, Desc},
	}
	for _, tt := range tests {
		f, d := ParseSort(tt.field, tt.dir)
		if f != tt.wantF || d != tt.wantD {
			t.Errorf("ParseSort(%q, %q) = %q %q, want %q %q", tt.field, tt.dir, f, d, tt.wantF, tt.wantD)
		}
	}
}
