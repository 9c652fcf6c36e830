package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/dagflow/internal/config"
	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/metrics"
	"github.com/vk/dagflow/internal/nodeid"
	"github.com/vk/dagflow/internal/pipeline"
	"github.com/vk/dagflow/internal/queue"
	"github.com/vk/dagflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	registry *registry.Registry
	ids      nodeid.Generator

	promReg *prometheus.Registry
	metrics *metrics.Metrics
	redis   *redis.Client
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, registry and
// metrics registry. When no modules are given the core modules are used.
// Duplicate function names panic.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.NewWithModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "funcs", reg.Names())

	var ids nodeid.Generator = nodeid.NewRandom()
	if cfg.StableIDs {
		ids = nodeid.NewStable()
	}

	promReg := prometheus.NewRegistry()
	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		registry: reg,
		ids:      ids,
		promReg:  promReg,
		metrics:  metrics.New(promReg),
	}
	if cfg.QueueKind == queue.KindRedis {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Debug("Redis client configured.", "addr", cfg.RedisAddr)
	}
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Close releases the redis client, if any.
func (a *App) Close() error {
	if a.redis == nil {
		return nil
	}
	return a.redis.Close()
}

// pipelineOptions are applied to every pipeline the app creates.
func (a *App) pipelineOptions() []pipeline.Option {
	var qopts []queue.Option
	if a.redis != nil {
		qopts = append(qopts, queue.WithRedis(a.redis))
	}
	return []pipeline.Option{
		pipeline.WithQueue(a.config.QueueKind, qopts...),
		pipeline.WithFailedStatus(!a.config.BestEffort),
		pipeline.WithMetrics(a.metrics),
	}
}

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
