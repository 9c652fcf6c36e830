// Package http_client provides the http_request task function, which makes
// one HTTP request per run and returns the status code and body.
package http_client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/registry"
)

const defaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client is shared by every request. Nil means a pooled client with a
	// 30s timeout, created on first use.
	Client *http.Client

	once sync.Once
}

func (m *Module) client() *http.Client {
	m.once.Do(func() {
		if m.Client == nil {
			m.Client = newHttpClient(defaultTimeout)
		}
	})
	return m.Client
}

// Run performs the request described by kwargs: "url" (required), "method"
// (default GET), "body" and "headers". When body is absent and the task has
// one string input, that input is sent as the body.
func (m *Module) Run(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
	url, _ := kwargs["url"].(string)
	if url == "" {
		return nil, errors.New("http_request: missing kwarg \"url\"")
	}
	method, _ := kwargs["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if b, ok := kwargs["body"].(string); ok {
		body = strings.NewReader(b)
	} else if len(inputs) == 1 {
		if s, ok := inputs[0].(string); ok {
			body = strings.NewReader(s)
		}
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", method, "url", url)

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if headers, ok := kwargs["headers"].(map[string]any); ok {
		for k, v := range headers {
			req.Header.Set(k, fmt.Sprint(v))
		}
	}

	resp, err := m.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return map[string]any{
		"status_code": int64(resp.StatusCode),
		"body":        string(bodyBytes),
	}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("http_request", m.Run)
}
