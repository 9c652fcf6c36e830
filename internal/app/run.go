package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/pipeline"
	"github.com/vk/dagflow/internal/scheduler"
	"github.com/vk/dagflow/internal/topologystore"
	"golang.org/x/sync/errgroup"
)

// Run builds the workflow, executes it once and prints a summary.
func (a *App) Run(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Run method started.")

	p, err := a.Build(ctx)
	if err != nil {
		return err
	}
	return a.execute(ctx, p)
}

// Compile builds the workflow and writes its topology to CompiledPath.
func (a *App) Compile(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	if a.config.CompiledPath == "" {
		return ErrMissingCompiledPath
	}

	p, err := a.Build(ctx)
	if err != nil {
		return err
	}
	if err := topologystore.Save(a.config.CompiledPath, p); err != nil {
		return fmt.Errorf("failed to save compiled pipeline: %w", err)
	}
	a.logger.Info("💾 Pipeline compiled.", "path", a.config.CompiledPath, "nodes", p.DAG().NodeCount(), "edges", p.DAG().EdgeCount())
	return nil
}

// Exec restores the pipeline stored at CompiledPath and executes it once.
func (a *App) Exec(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	if a.config.CompiledPath == "" {
		return ErrMissingCompiledPath
	}

	p, err := topologystore.Load(a.config.CompiledPath, a.registry, a.ids, a.pipelineOptions()...)
	if err != nil {
		return fmt.Errorf("failed to load compiled pipeline: %w", err)
	}
	a.logger.Debug("Compiled pipeline restored.", "path", a.config.CompiledPath, "nodes", p.DAG().NodeCount())
	return a.execute(ctx, p)
}

// Execute runs an already built pipeline once and prints a summary.
func (a *App) Execute(ctx context.Context, p *pipeline.Pipeline) error {
	return a.execute(a.withLogger(ctx), p)
}

func (a *App) execute(ctx context.Context, p *pipeline.Pipeline) error {
	a.logger.Info("🚀 Starting execution...", "pipeline", p.String())
	if err := scheduler.RunOnce(ctx, p); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")
	return writeSummary(a.outW, p)
}

// Schedule builds the workflow and runs it on the cron spec until ctx is
// cancelled. The health and metrics server runs alongside when enabled.
func (a *App) Schedule(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	if a.config.Cron == "" {
		return ErrMissingCron
	}

	p, err := a.Build(ctx)
	if err != nil {
		return err
	}

	opts := []scheduler.Option{scheduler.WithLogger(a.logger)}
	if a.config.CronSeconds {
		opts = append(opts, scheduler.WithSeconds())
	}
	sched := scheduler.New(opts...)
	if _, err := sched.Schedule(ctx, a.config.Cron, p); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if a.config.HealthcheckPort > 0 {
		g.Go(func() error {
			return a.serveHealthcheck(gctx, a.config.HealthcheckPort)
		})
	}
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		logger.Info("Stopping scheduler...")
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return sched.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
