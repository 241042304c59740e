// Package metricsjob runs the daily aggregation that keeps the
// daily_metrics snapshot table in sync with raw orders and feedback.
package metricsjob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/ifooddash/dashboard/internal/dependency"
)

// Config holds configuration for the daily metrics worker.
type Config struct {
	RunAt    string `mapstructure:"run_at"`   // "HH:MM" local to Timezone
	Timezone string `mapstructure:"timezone"` // IANA name, e.g. "America/Sao_Paulo"
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		RunAt:    "03:00",
		Timezone: "UTC",
	}
}

// Worker recomputes the daily_metrics snapshot once at startup and then
// every day at the configured wall-clock time.
type Worker struct {
	rep    dependency.Repository
	source dependency.OrderSource
	c      *Config
	cron   *cron.Cron
	ctx    context.Context
	stop   context.CancelFunc

	// running guards against a run starting while the previous one is
	// still going; the late run is skipped, not queued.
	running sync.Mutex
}

// New creates a daily metrics worker.
func New(rep dependency.Repository, source dependency.OrderSource, c *Config) (*Worker, error) {
	if c == nil {
		dc := DefaultConfig()
		c = &dc
	}
	if c.RunAt == "" {
		c.RunAt = "03:00"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("can't load timezone %q: %w", c.Timezone, err)
	}

	var hh, mm int
	if _, err := fmt.Sscanf(c.RunAt, "%d:%d", &hh, &mm); err != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return nil, fmt.Errorf("can't parse run_at %q, want HH:MM", c.RunAt)
	}

	w := &Worker{
		rep:    rep,
		source: source,
		c:      c,
		cron:   cron.New(cron.WithLocation(loc)),
	}
	if _, err := w.cron.AddFunc(fmt.Sprintf("%d %d * * *", mm, hh), func() {
		w.run(w.ctx)
	}); err != nil {
		return nil, fmt.Errorf("can't schedule daily metrics job: %w", err)
	}
	return w, nil
}

// Start runs one recomputation immediately and schedules the daily cron.
func (w *Worker) Start(ctx context.Context) error {
	if w.ctx != nil && w.stop != nil {
		return fmt.Errorf("metrics worker already started")
	}
	w.ctx, w.stop = context.WithCancel(ctx)

	// Run immediately on startup so a restarted service doesn't serve a
	// stale snapshot until the next scheduled run.
	go w.run(w.ctx)

	w.cron.Start()
	return nil
}

// Stop stops the worker gracefully. A run already in flight finishes.
func (w *Worker) Stop() error {
	if w.stop == nil {
		return fmt.Errorf("metrics worker already stopped or not started")
	}
	w.cron.Stop()
	w.stop()
	w.stop = nil
	return nil
}

// run executes one ingest + recompute cycle. Overlapping runs are skipped
// and every failure is logged; the worker never takes the process down.
func (w *Worker) run(ctx context.Context) {
	if ctx == nil || ctx.Err() != nil {
		return
	}
	if !w.running.TryLock() {
		slog.Default().WarnContext(ctx, "daily metrics run still in progress, skipping")
		return
	}
	defer w.running.Unlock()

	started := time.Now()
	slog.Default().InfoContext(ctx, "starting daily metrics run")

	if err := w.source.Ingest(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "order source ingest failed",
			slog.String("err", err.Error()))
		return
	}

	if err := w.rep.DailyMetrics().Recompute(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "daily metrics recompute failed",
			slog.String("err", err.Error()))
		return
	}

	slog.Default().InfoContext(ctx, "daily metrics run finished",
		slog.String("took", time.Since(started).String()))
}
