package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/dagflow/internal/cli"
)

// main is the entrypoint for the dagflow application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			cancel()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Panics raised while wiring the application, such as a function
// registered twice, are returned as errors.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()
	return cli.Execute(ctx, outW, args)
}
