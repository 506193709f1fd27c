package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tasktrack/tasktrack/internal/api"
	"github.com/tasktrack/tasktrack/internal/app/tasks"
	"github.com/tasktrack/tasktrack/internal/health"
	"github.com/tasktrack/tasktrack/internal/infra/sqlite"
)

// Daemon is the tasktrack runtime. It wires together all services.
type Daemon struct {
	Config Config
	DB     *sqlite.DB
	Tasks  *tasks.Service
	Health *health.Checker
	Server *api.Server
	cancel context.CancelFunc
	logOut io.Closer
}

// New creates and initializes a Daemon from the config file.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	d := &Daemon{Config: cfg}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o700); err != nil {
			return nil, fmt.Errorf("log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		d.logOut = f
	}

	dataDir := cfg.DataDir()
	db, err := sqlite.Open(dataDir)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	d.DB = db

	d.Tasks = tasks.NewService(db, cfg.RetryConfig())
	d.Tasks.SetDebug(cfg.Debug())

	d.Health = health.NewChecker(db, dataDir)
	d.Health.SetInterval(parseDuration(cfg.Health.Interval, health.DefaultInterval))

	srv := api.NewServer(d.Tasks)
	srv.SetHealthChecker(d.Health)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	if cfg.Debug() {
		srv.EnableRequestLog()
	}
	d.Server = srv

	if cfg.Debug() {
		log.Printf("[daemon] database at %s", filepath.Join(dataDir, sqlite.FileName))
	}
	return d, nil
}

// Addr is the configured listen address.
func (d *Daemon) Addr() string {
	return net.JoinHostPort(d.Config.API.Host, fmt.Sprint(d.Config.API.Port))
}

// Serve starts the HTTP server and blocks until ctx is cancelled or a
// SIGINT/SIGTERM arrives.
func (d *Daemon) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.Addr(), err)
	}
	return d.ServeListener(ctx, ln)
}

// ServeListener serves on an existing listener. Tests pass a :0 listener.
func (d *Daemon) ServeListener(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	go d.Health.Run(ctx)

	httpServer := &http.Server{
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		select {
		case <-sigCh:
			log.Printf("[daemon] signal received, shutting down")
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	addr := ln.Addr().String()
	log.Printf("[daemon] tasktrack serving on http://%s", addr)
	if d.Config.Telemetry.Prometheus {
		log.Printf("[daemon] metrics: http://%s/metrics", addr)
	}

	err := httpServer.Serve(ln)
	cancel()
	<-shutdownDone
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.logOut != nil {
		log.SetOutput(os.Stderr)
		_ = d.logOut.Close()
		d.logOut = nil
	}
}
