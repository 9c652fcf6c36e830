package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/vk/dagflow/internal/ctxlog"
)

// Runnable is a pipeline as seen by the scheduler.
type Runnable interface {
	Collect(ctx context.Context) error
	Run(ctx context.Context) error
}

// Option configures a Scheduler.
type Option func(*config)

type config struct {
	seconds bool
	logger  *slog.Logger
}

// WithSeconds accepts specs with a leading seconds field.
func WithSeconds() Option { return func(c *config) { c.seconds = true } }

// WithLogger sets the logger used for cron's own messages.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a stopped scheduler.
func New(opts ...Option) *Scheduler {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cronLogger{cfg.logger}
	cronOpts := []cron.Option{
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	}
	if cfg.seconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}
	return &Scheduler{cron: cron.New(cronOpts...)}
}

// Schedule runs p on spec. ctx is handed to every run; its logger labels
// the run's log lines.
func (s *Scheduler) Schedule(ctx context.Context, spec string, p Runnable) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		if err := RunOnce(ctx, p); err != nil {
			ctxlog.FromContext(ctx).Error("Scheduled run failed.", "spec", spec, "error", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %q: %w", spec, err)
	}
	ctxlog.FromContext(ctx).Info("Pipeline scheduled.", "spec", spec, "entry", id)
	return id, nil
}

// Remove cancels a scheduled entry.
func (s *Scheduler) Remove(id cron.EntryID) { s.cron.Remove(id) }

// Entries returns the number of scheduled entries.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// Start begins firing triggers in a background goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce collects and runs p.
func RunOnce(ctx context.Context, p Runnable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Collect(ctx); err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
