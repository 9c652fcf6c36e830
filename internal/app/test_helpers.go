package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/vk/dagflow/internal/hcl"
	"github.com/vk/dagflow/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance with the HCL loader for system
// testing. Set DAGFLOW_TEST_LOGS=true to print the captured output.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	appConfig, err := NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	logBuffer := &SafeBuffer{}
	testApp := NewApp(logBuffer, appConfig, hcl.NewLoader(), modules...)

	t.Cleanup(func() {
		_ = testApp.Close()
		if os.Getenv("DAGFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
