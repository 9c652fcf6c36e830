package app

import (
	"errors"
	"fmt"

	"github.com/vk/dagflow/internal/queue"
)

var (
	// ErrMissingDefinitions is returned when a command needs definition files.
	ErrMissingDefinitions = errors.New("at least one definition path is required")
	// ErrMissingCompiledPath is returned when compile or exec has no file to use.
	ErrMissingCompiledPath = errors.New("compiled pipeline path is required")
	// ErrMissingCron is returned when schedule has no cron spec.
	ErrMissingCron = errors.New("cron spec is required")
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DefinitionPaths []string // hcl files or directories
	Workflow        string
	CompiledPath    string // msgpack topology for compile and exec

	QueueKind string
	RedisAddr string
	// BestEffort ends failing tasks Completed instead of Failed.
	BestEffort bool
	// StableIDs derives task ids from task names.
	StableIDs bool

	Cron            string
	CronSeconds     bool
	HealthcheckPort int

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills defaults.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.QueueKind {
	case "":
		cfg.QueueKind = queue.KindDefault
	case queue.KindDefault, queue.KindRedis:
	default:
		return nil, fmt.Errorf("%w: %q", queue.ErrUnknownKind, cfg.QueueKind)
	}
	if cfg.QueueKind == queue.KindRedis && cfg.RedisAddr == "" {
		return nil, errors.New("redis queue requires a redis address")
	}

	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}

	if cfg.HealthcheckPort < 0 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
