// Package daemon manages the tasktrack server lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tasktrack/tasktrack/internal/app/tasks"
)

// ConfigFile is the config file name inside the home directory.
const ConfigFile = "config.toml"

// Config holds all daemon configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Database   DatabaseConfig   `toml:"database"`
	Recurrence RecurrenceConfig `toml:"recurrence"`
	Health     HealthConfig     `toml:"health"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Logging    LoggingConfig    `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DatabaseConfig controls where tasks.db lives. Empty means the home dir.
type DatabaseConfig struct {
	Dir string `toml:"dir"`
}

// RecurrenceConfig bounds successor-insert retries.
type RecurrenceConfig struct {
	MaxRetries    int    `toml:"max_retries"`
	RetryDelay    string `toml:"retry_delay"`
	MaxRetryDelay string `toml:"max_retry_delay"`
}

// HealthConfig controls the background health checker.
type HealthConfig struct {
	Interval string `toml:"interval"`
}

// TelemetryConfig controls the /metrics endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8420,
			CORSOrigins: []string{"*"},
		},
		Recurrence: RecurrenceConfig{
			MaxRetries:    2,
			RetryDelay:    "100ms",
			MaxRetryDelay: "1s",
		},
		Health: HealthConfig{
			Interval: "60s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads config from $TASKTRACK_HOME/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(filepath.Join(Home(), ConfigFile))
}

// LoadConfigFrom reads the config at path. A missing file yields defaults.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the daemon cannot run with.
func (c Config) Validate() error {
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("config: api.port %d out of range", c.API.Port)
	}
	if c.Recurrence.MaxRetries < 0 {
		return fmt.Errorf("config: recurrence.max_retries must not be negative")
	}
	for key, v := range map[string]string{
		"recurrence.retry_delay":     c.Recurrence.RetryDelay,
		"recurrence.max_retry_delay": c.Recurrence.MaxRetryDelay,
		"health.interval":            c.Health.Interval,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info":
	default:
		return fmt.Errorf("config: unknown logging.level %q (want debug or info)", c.Logging.Level)
	}
	return nil
}

// SaveConfig writes the config to $TASKTRACK_HOME/config.toml.
func SaveConfig(cfg Config) error {
	return SaveConfigTo(filepath.Join(Home(), ConfigFile), cfg)
}

// SaveConfigTo writes cfg as TOML to path.
func SaveConfigTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// DataDir is where tasks.db lives.
func (c Config) DataDir() string {
	if c.Database.Dir != "" {
		return c.Database.Dir
	}
	return Home()
}

// RetryConfig converts the recurrence section for the task service.
func (c Config) RetryConfig() tasks.RetryConfig {
	def := tasks.DefaultRetryConfig()
	return tasks.RetryConfig{
		MaxRetries: c.Recurrence.MaxRetries,
		BaseDelay:  parseDuration(c.Recurrence.RetryDelay, def.BaseDelay),
		MaxDelay:   parseDuration(c.Recurrence.MaxRetryDelay, def.MaxDelay),
	}
}

// Debug reports whether debug logging is on.
func (c Config) Debug() bool {
	return strings.EqualFold(c.Logging.Level, "debug")
}

// Home returns the tasktrack data directory.
func Home() string {
	if env := os.Getenv("TASKTRACK_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tasktrack")
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
