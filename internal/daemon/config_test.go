package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tasktrack/tasktrack/internal/app/tasks"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8420 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8420)
	}
	if cfg.Recurrence.MaxRetries != 2 {
		t.Errorf("Recurrence.MaxRetries = %d, want 2", cfg.Recurrence.MaxRetries)
	}
	if cfg.Telemetry.Prometheus {
		t.Error("Telemetry.Prometheus should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error: %v", err)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TASKTRACK_HOME", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFrom_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	os.WriteFile(path, []byte(`
[api]
port = 9000

[database]
dir = "/var/lib/tasktrack"

[recurrence]
max_retries = 5
retry_delay = "250ms"

[telemetry]
prometheus = true

[logging]
level = "debug"
`), 0o600)

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom() error: %v", err)
	}
	if cfg.API.Port != 9000 || cfg.API.Host != "127.0.0.1" {
		t.Errorf("API = %s:%d, want 127.0.0.1:9000", cfg.API.Host, cfg.API.Port)
	}
	if cfg.DataDir() != "/var/lib/tasktrack" {
		t.Errorf("DataDir() = %q", cfg.DataDir())
	}
	if !cfg.Telemetry.Prometheus || !cfg.Debug() {
		t.Error("telemetry and debug should be enabled")
	}
	want := tasks.RetryConfig{MaxRetries: 5, BaseDelay: 250 * time.Millisecond, MaxDelay: time.Second}
	if diff := cmp.Diff(want, cfg.RetryConfig()); diff != "" {
		t.Errorf("RetryConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[api\nport = 1"},
		{"port", "[api]\nport = 70000"},
		{"retry delay", "[recurrence]\nretry_delay = \"soon\""},
		{"log level", "[logging]\nlevel = \"loud\""},
		{"warn level", "[logging]\nlevel = \"warn\""},
		{"negative retries", "[recurrence]\nmax_retries = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFile)
			os.WriteFile(path, []byte(tt.body), 0o600)
			if _, err := LoadConfigFrom(path); err == nil {
				t.Error("LoadConfigFrom() should fail")
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TASKTRACK_HOME", home)

	cfg := DefaultConfig()
	cfg.API.Port = 9100
	cfg.API.CORSOrigins = []string{"http://localhost:5173"}
	cfg.Telemetry.Prometheus = true
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestHome(t *testing.T) {
	t.Setenv("TASKTRACK_HOME", "/tmp/tt-home")
	if got := Home(); got != "/tmp/tt-home" {
		t.Errorf("Home() = %q, want /tmp/tt-home", got)
	}
	if got := DefaultConfig().DataDir(); got != "/tmp/tt-home" {
		t.Errorf("DataDir() = %q, want home dir", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"2s", 2 * time.Second},
		{"", time.Minute},
		{"bogus", time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDuration(tt.input, time.Minute); got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
