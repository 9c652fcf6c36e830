package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/dagflow/internal/app"
	"github.com/vk/dagflow/internal/hcl"
	"github.com/vk/dagflow/internal/queue"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// options collects the flag values shared by all commands.
type options struct {
	workflow        string
	out             string
	cron            string
	cronSeconds     bool
	queueKind       string
	redisAddr       string
	healthcheckPort int
	bestEffort      bool
	stableIDs       bool
	logFormat       string
	logLevel        string
}

func (o *options) config(paths []string, compiled string) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		DefinitionPaths: paths,
		Workflow:        o.workflow,
		CompiledPath:    compiled,
		QueueKind:       strings.ToLower(o.queueKind),
		RedisAddr:       o.redisAddr,
		BestEffort:      o.bestEffort,
		StableIDs:       o.stableIDs,
		Cron:            o.cron,
		CronSeconds:     o.cronSeconds,
		HealthcheckPort: o.healthcheckPort,
		LogFormat:       strings.ToLower(o.logFormat),
		LogLevel:        strings.ToLower(o.logLevel),
	})
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("CLI configuration assembled.", "config", cfg)
	return cfg, nil
}

// Execute parses args and runs the selected command. Cancelling ctx stops a
// running schedule.
func Execute(ctx context.Context, outW io.Writer, args []string) error {
	cmd := NewRootCmd(outW)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		return usageError(err)
	}
	return err
}

// NewRootCmd builds the dagflow command tree writing to outW.
func NewRootCmd(outW io.Writer) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "dagflow",
		Short:         "dagflow composes task pipelines into a DAG and runs them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(outW)
	cmd.SetErr(outW)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&o.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&o.queueKind, "queue", queue.KindDefault, "Queue backend. Options: 'default' or 'redis'.")
	flags.StringVar(&o.redisAddr, "redis-addr", "", "Redis address for the redis queue backend.")
	flags.BoolVar(&o.bestEffort, "best-effort", false, "Mark failing tasks Completed instead of Failed.")
	flags.BoolVar(&o.stableIDs, "stable-ids", false, "Derive task ids from task names.")

	cmd.AddCommand(
		newRunCmd(outW, o),
		newCompileCmd(outW, o),
		newExecCmd(outW, o),
		newScheduleCmd(outW, o),
	)
	return cmd
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func newApp(outW io.Writer, cfg *app.Config) *app.App {
	return app.NewApp(outW, cfg, hcl.NewLoader())
}

func newRunCmd(outW io.Writer, o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run PATH...",
		Short: "Compose a workflow from definition files and run it once",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(args, "")
			if err != nil {
				return err
			}
			a := newApp(outW, cfg)
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&o.workflow, "workflow", "w", "", "Workflow to run. Optional when only one is defined.")
	return cmd
}

func newCompileCmd(outW io.Writer, o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile PATH...",
		Short: "Compose a workflow and write its topology to a file",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.out == "" {
				return usageError(fmt.Errorf("required flag \"out\" not set"))
			}
			cfg, err := o.config(args, o.out)
			if err != nil {
				return err
			}
			a := newApp(outW, cfg)
			defer a.Close()
			return a.Compile(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&o.workflow, "workflow", "w", "", "Workflow to compile. Optional when only one is defined.")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Path of the compiled pipeline file.")
	return cmd
}

func newExecCmd(outW io.Writer, o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exec FILE",
		Short: "Run a compiled pipeline",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(nil, args[0])
			if err != nil {
				return err
			}
			a := newApp(outW, cfg)
			defer a.Close()
			return a.Exec(cmd.Context())
		},
	}
}

func newScheduleCmd(outW io.Writer, o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule PATH...",
		Short: "Run a workflow on a cron schedule until interrupted",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.cron == "" {
				return usageError(fmt.Errorf("required flag \"cron\" not set"))
			}
			cfg, err := o.config(args, "")
			if err != nil {
				return err
			}
			a := newApp(outW, cfg)
			defer a.Close()
			return a.Schedule(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&o.workflow, "workflow", "w", "", "Workflow to schedule. Optional when only one is defined.")
	cmd.Flags().StringVar(&o.cron, "cron", "", "Cron spec, e.g. '*/5 * * * *' or '@every 1m'.")
	cmd.Flags().BoolVar(&o.cronSeconds, "seconds", false, "Cron spec has a leading seconds field.")
	cmd.Flags().IntVar(&o.healthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics server. 0 is disabled.")
	return cmd
}
