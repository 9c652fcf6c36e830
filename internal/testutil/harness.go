package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/dagflow/internal/app"
	"github.com/vk/dagflow/internal/hcl"
	"github.com/vk/dagflow/internal/pipeline"
	"github.com/vk/dagflow/internal/registry"
	"github.com/vk/dagflow/internal/task"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	// Err is the build or run error, if any.
	Err      error
	App      *app.App
	Pipeline *pipeline.Pipeline
}

// Task returns the first task named name, failing the test when absent.
func (r *HarnessResult) Task(t *testing.T, name string) *task.Task {
	t.Helper()
	require.NotNil(t, r.Pipeline, "no pipeline was built")
	tk, err := r.Pipeline.TaskByName(name)
	require.NoError(t, err)
	return tk
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, cfg app.Config, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, cfg, files, modules...)
}

// RunIntegrationTestWithContext writes files under a temporary directory,
// points cfg at it, builds the workflow and runs it once. Modules default to
// the core modules when none are given.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, cfg app.Config, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg.DefinitionPaths = []string{tmpDir}
	cfg.LogLevel = "debug"
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &app.SafeBuffer{}
	result := &HarnessResult{}
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		result.App = app.NewApp(logBuffer, appConfig, hcl.NewLoader(), modules...)
	}()

	if result.Err == nil {
		t.Cleanup(func() { _ = result.App.Close() })
		result.Pipeline, result.Err = result.App.Build(ctx)
		if result.Err == nil {
			result.Err = result.App.Execute(ctx, result.Pipeline)
		}
	}

	if os.Getenv("DAGFLOW_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}
	result.LogOutput = logBuffer.String()
	return result
}
