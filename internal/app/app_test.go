package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dagflow/internal/dag"
	"github.com/vk/dagflow/internal/queue"
	"github.com/vk/dagflow/internal/registry"
)

const chainHCL = `
pipeline "init" {
  task "seed" {
    func   = "const"
    kwargs = { value = 5 }
  }
  task "double" {
    func       = "mul"
    kwargs     = { factor = 2 }
    depends_on = ["seed"]
  }
}

pipeline "report" {
  task "total" {
    func       = "sum"
    depends_on = ["pipeline.init"]
  }
}

workflow "main" {
  steps = ["init", "report"]
}
`

const failingHCL = `
pipeline "p" {
  task "a" {
    func   = "const"
    kwargs = { value = 1 }
  }
  task "b" {
    func       = "boom"
    depends_on = ["a"]
  }
  task "c" {
    func       = "sum"
    depends_on = ["b"]
  }
}
`

// boomModule registers a function that always fails.
type boomModule struct{}

func (boomModule) Register(r *registry.Registry) {
	r.Register("boom", func(context.Context, []any, map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
}

func withBoom() []registry.Module {
	return append([]registry.Module{boomModule{}}, coreModules...)
}

func writeDefinition(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := NewConfig(Config{})
		require.NoError(t, err)
		assert.Equal(t, queue.KindDefault, cfg.QueueKind)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "text", cfg.LogFormat)
	})

	testCases := []struct {
		name string
		cfg  Config
	}{
		{"unknown queue", Config{QueueKind: "kafka"}},
		{"redis without address", Config{QueueKind: queue.KindRedis}},
		{"bad log level", Config{LogLevel: "loud"}},
		{"bad log format", Config{LogFormat: "xml"}},
		{"negative port", Config{HealthcheckPort: -1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewApp_RegistersCoreModules(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})
	assert.Equal(t, []string{"const", "env_vars", "http_request", "mul", "print", "sum"}, a.Registry().Names())
}

func TestBuild(t *testing.T) {
	t.Run("pipeline reference pulls in the upstream pipeline", func(t *testing.T) {
		path := writeDefinition(t, `
pipeline "init" {
  task "seed" {
    func   = "const"
    kwargs = { value = 1 }
  }
}
pipeline "report" {
  task "show" {
    func       = "print"
    depends_on = ["pipeline.init"]
  }
}
workflow "main" { steps = ["report"] }
`)
		a, _ := SetupAppTest(t, Config{DefinitionPaths: []string{path}})

		p, err := a.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "main", p.Name)
		assert.Equal(t, 2, p.DAG().NodeCount())
		assert.Equal(t, 1, p.DAG().EdgeCount())
	})

	t.Run("single workflow is picked without a name", func(t *testing.T) {
		a, _ := SetupAppTest(t, Config{DefinitionPaths: []string{writeDefinition(t, chainHCL)}})
		p, err := a.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "main", p.Name)
		assert.Equal(t, 3, p.DAG().NodeCount())
	})

	testCases := []struct {
		name     string
		hcl      string
		workflow string
		wantErr  error
	}{
		{
			name:     "unknown workflow",
			hcl:      chainHCL,
			workflow: "nope",
			wantErr:  ErrUnknownWorkflow,
		},
		{
			name:    "unknown pipeline step",
			hcl:     `workflow "w" { steps = ["ghost"] }`,
			wantErr: ErrUnknownPipeline,
		},
		{
			name: "unknown pipeline reference",
			hcl: `
pipeline "p" {
  task "a" {
    func       = "print"
    depends_on = ["pipeline.ghost"]
  }
}
`,
			wantErr: ErrUnknownPipeline,
		},
		{
			name: "unknown func",
			hcl: `
pipeline "p" {
  task "a" {
    func = "teleport"
  }
}
`,
			wantErr: registry.ErrUnknownFunc,
		},
		{
			name: "pipeline depends on itself",
			hcl: `
pipeline "p" {
  task "a" {
    func       = "print"
    depends_on = ["pipeline.p"]
  }
}
`,
			wantErr: dag.ErrCircularDependency,
		},
		{
			name: "disconnected pipelines",
			hcl: `
pipeline "a" {
  task "x" { func = "print" }
}
pipeline "b" {
  task "y" { func = "print" }
}
`,
			wantErr: dag.ErrMissingDependency,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := SetupAppTest(t, Config{
				DefinitionPaths: []string{writeDefinition(t, tc.hcl)},
				Workflow:        tc.workflow,
			})
			_, err := a.Build(context.Background())
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	t.Run("missing definitions", func(t *testing.T) {
		a, _ := SetupAppTest(t, Config{})
		_, err := a.Build(context.Background())
		assert.ErrorIs(t, err, ErrMissingDefinitions)
	})
}

func TestRun_Chain(t *testing.T) {
	a, out := SetupAppTest(t, Config{DefinitionPaths: []string{writeDefinition(t, chainHCL)}})

	require.NoError(t, a.Run(context.Background()))
	assert.Regexp(t, `double\s+mul\s+Completed\s+10`, out.String())
	assert.Regexp(t, `total\s+sum\s+Completed\s+10`, out.String())
	assert.Equal(t, 3.0, testutil.ToFloat64(a.metrics.TaskRuns.WithLabelValues("Completed")))
}

func TestRun_FailingTask(t *testing.T) {
	path := writeDefinition(t, failingHCL)

	t.Run("failed status", func(t *testing.T) {
		a, out := SetupAppTest(t, Config{DefinitionPaths: []string{path}}, withBoom()...)
		require.NoError(t, a.Run(context.Background()))
		assert.Regexp(t, `b\s+boom\s+Failed\s+error: boom`, out.String())
		assert.Regexp(t, `c\s+sum\s+Completed\s+0`, out.String())
	})

	t.Run("best effort", func(t *testing.T) {
		a, out := SetupAppTest(t, Config{DefinitionPaths: []string{path}, BestEffort: true}, withBoom()...)
		require.NoError(t, a.Run(context.Background()))
		assert.Regexp(t, `b\s+boom\s+Completed\s+error: boom`, out.String())
	})
}

func TestRun_RedisQueue(t *testing.T) {
	srv := miniredis.RunT(t)
	a, out := SetupAppTest(t, Config{
		DefinitionPaths: []string{writeDefinition(t, chainHCL)},
		QueueKind:       queue.KindRedis,
		RedisAddr:       srv.Addr(),
	})

	require.NoError(t, a.Run(context.Background()))
	assert.Regexp(t, `total\s+sum\s+Completed\s+10`, out.String())
}

func TestCompileAndExec(t *testing.T) {
	compiled := filepath.Join(t.TempDir(), "main.dfc")

	compiler, _ := SetupAppTest(t, Config{
		DefinitionPaths: []string{writeDefinition(t, chainHCL)},
		CompiledPath:    compiled,
	})
	require.NoError(t, compiler.Compile(context.Background()))
	assert.FileExists(t, compiled)

	runner, out := SetupAppTest(t, Config{CompiledPath: compiled})
	require.NoError(t, runner.Exec(context.Background()))
	assert.Regexp(t, `total\s+sum\s+Completed\s+10`, out.String())

	t.Run("missing path", func(t *testing.T) {
		a, _ := SetupAppTest(t, Config{})
		assert.ErrorIs(t, a.Compile(context.Background()), ErrMissingCompiledPath)
		assert.ErrorIs(t, a.Exec(context.Background()), ErrMissingCompiledPath)
	})
}

func TestSchedule(t *testing.T) {
	t.Run("runs until cancelled", func(t *testing.T) {
		a, _ := SetupAppTest(t, Config{
			DefinitionPaths: []string{writeDefinition(t, chainHCL)},
			Cron:            "@every 1s",
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
		defer cancel()

		require.NoError(t, a.Schedule(ctx))
		assert.GreaterOrEqual(t, testutil.ToFloat64(a.metrics.TaskRuns.WithLabelValues("Completed")), 3.0)
	})

	t.Run("requires a cron spec", func(t *testing.T) {
		a, _ := SetupAppTest(t, Config{DefinitionPaths: []string{writeDefinition(t, chainHCL)}})
		assert.ErrorIs(t, a.Schedule(context.Background()), ErrMissingCron)
	})

	t.Run("rejects a bad cron spec", func(t *testing.T) {
		a, _ := SetupAppTest(t, Config{
			DefinitionPaths: []string{writeDefinition(t, chainHCL)},
			Cron:            "not a spec",
		})
		assert.Error(t, a.Schedule(context.Background()))
	})
}

func TestHealthcheck(t *testing.T) {
	a, _ := SetupAppTest(t, Config{DefinitionPaths: []string{writeDefinition(t, chainHCL)}})
	require.NoError(t, a.Run(context.Background()))

	srv := httptest.NewServer(a.handler())
	defer srv.Close()

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK\n", string(body))
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), `dagflow_task_runs_total{status="Completed"} 3`)
		assert.Contains(t, string(body), `dagflow_pipeline_compose_total{result="ok"}`)
	})
}

func TestServe_StopsOnCancel(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
