package server

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/gaze"
	"github.com/agentstation/gaze/internal/server/cache"
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/engine"
)

var modules = catalog.Static{
	{ID: "1", DisplayName: "Chemistry 101", CanonicalContentURL: "http://cdn/modules/chem-101/index.html",
		Categories: []catalog.Category{{Name: "Science"}}},
}

// stubApplication is a minimal Application implementation for testing.
type stubApplication struct {
	logger *zerolog.Logger
	gz     gaze.Client
	err    error
}

func newStubApplication(t *testing.T) *stubApplication {
	t.Helper()
	logger := zerolog.Nop()

	cfg := engine.DefaultConfig()
	cfg.TickInterval = time.Hour
	cfg.ReapInterval = time.Hour
	cfg.EvaluateInterval = time.Hour

	gz, err := gaze.New(
		gaze.WithEngineConfig(cfg),
		gaze.WithLogger(&logger),
		gaze.WithCatalogSource(modules),
		gaze.WithAutoRefresh(false),
	)
	if err != nil {
		t.Fatalf("gaze.New() failed: %v", err)
	}
	if err := gz.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = gz.Shutdown(ctx)
	})
	return &stubApplication{logger: &logger, gz: gz}
}

func (m *stubApplication) Gaze() (gaze.Client, error) { return m.gz, m.err }
func (m *stubApplication) Logger() *zerolog.Logger   { return m.logger }
func (m *stubApplication) APIURL() string            { return "http://localhost:8080/api/v1" }
func (m *stubApplication) OutputFormat() string      { return "table" }
func (m *stubApplication) Version() string           { return "test" }
func (m *stubApplication) Commit() string            { return "test-commit" }
func (m *stubApplication) Date() string              { return "test-date" }

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(newStubApplication(t), cfg)
	if err != nil {
		t.Fatalf("server.New() failed: %v", err)
	}
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, ts
}

// TestServerInitialization tests that New and Start complete without blocking.
// Transports subscribe to the broker before its loop runs.
func TestServerInitialization(t *testing.T) {
	app := newStubApplication(t)

	done := make(chan struct{})
	var srv *Server
	var newErr error
	go func() {
		srv, newErr = New(app, DefaultConfig())
		if newErr == nil {
			srv.Start()
			srv.Start()
		}
		close(done)
	}()

	select {
	case <-done:
		if newErr != nil {
			t.Fatalf("server.New() failed: %v", newErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server.New() or Start() deadlocked")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

// TestServerNewFailsWithoutMonitor tests that a broken application is reported.
func TestServerNewFailsWithoutMonitor(t *testing.T) {
	logger := zerolog.Nop()
	app := &stubApplication{logger: &logger, err: stderrors.New("bad feed config")}

	if _, err := New(app, DefaultConfig()); err == nil {
		t.Fatal("expected an error")
	}
}

// TestServerNATSUnavailable tests that an unreachable NATS server is not fatal.
func TestServerNATSUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NATSURL = "nats://127.0.0.1:1"

	srv, err := New(newStubApplication(t), cfg)
	if err != nil {
		t.Fatalf("server.New() failed: %v", err)
	}
	if srv.nats != nil {
		t.Error("expected NATS republishing to be disabled")
	}
	_ = srv.Shutdown(context.Background())
}

// TestRoutes tests method routing across the API.
func TestRoutes(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{"GET", "/health", "", http.StatusOK},
		{"GET", "/api/v1/health", "", http.StatusOK},
		{"GET", "/api/v1/ready", "", http.StatusOK},
		{"GET", "/api/v1/sessions", "", http.StatusOK},
		{"GET", "/api/v1/sessions/10.0.0.7", "", http.StatusNotFound},
		{"GET", "/api/v1/alerts?limit=2", "", http.StatusOK},
		{"GET", "/api/v1/policies", "", http.StatusOK},
		{"POST", "/api/v1/policies", `{"module_key":"Chemistry 101","limit_minutes":15}`, http.StatusCreated},
		{"POST", "/api/v1/policies/Chemistry%20101/toggle", "", http.StatusOK},
		{"POST", "/api/v1/policies/Chemistry%20101/enable", "", http.StatusOK},
		{"POST", "/api/v1/policies/Chemistry%20101/disable", "", http.StatusOK},
		{"DELETE", "/api/v1/policies/Chemistry%20101", "", http.StatusOK},
		{"DELETE", "/api/v1/policies/Chemistry%20101", "", http.StatusNotFound},
		{"PUT", "/api/v1/policies", "", http.StatusMethodNotAllowed},
		{"GET", "/api/v1/catalog?q=chem", "", http.StatusOK},
		{"POST", "/api/v1/catalog/refresh", "", http.StatusOK},
		{"GET", "/api/v1/monitor", "", http.StatusOK},
		{"POST", "/api/v1/monitor", `{"action":"stop"}`, http.StatusOK},
		{"GET", "/api/v1/stats", "", http.StatusOK},
		{"GET", "/metrics", "", http.StatusOK},
		{"GET", "/favicon.ico", "", http.StatusNoContent},
		{"GET", "/api/v1/models", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("expected a request id header")
			}
		})
	}
}

// TestMetricsDisabled tests that /metrics can be turned off.
func TestMetricsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetricsEnabled = false
	_, ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// TestCORSEnabled tests the optional CORS layer.
func TestCORSEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CORSEnabled = true
	cfg.CORSOrigins = []string{"https://dash.example.edu"}
	_, ts := newTestServer(t, cfg)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/policies", nil)
	req.Header.Set("Origin", "https://dash.example.edu")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://dash.example.edu" {
		t.Errorf("unexpected allow origin %q", got)
	}
}

// TestEventsReachSSEClients tests the monitor to broker to SSE path.
func TestEventsReachSSEClients(t *testing.T) {
	srv, ts := newTestServer(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/updates/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	frames := make(chan string, 16)
	go func() {
		defer close(frames)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "event: ") {
				frames <- strings.TrimPrefix(line, "event: ")
			}
		}
	}()

	expectFrame(t, frames, "connected")

	deadline := time.Now().Add(2 * time.Second)
	for srv.SSEBroadcaster().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := srv.Gaze().Engine().PutPolicy("Chemistry 101", 10); err != nil {
		t.Fatal(err)
	}
	expectFrame(t, frames, "policy.changed")
}

func expectFrame(t *testing.T, frames <-chan string, want string) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case got, ok := <-frames:
			if !ok {
				t.Fatalf("stream closed before %q", want)
			}
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

// TestCatalogUpdateInvalidatesCache tests that a catalog swap drops cached pages.
func TestCatalogUpdateInvalidatesCache(t *testing.T) {
	srv, ts := newTestServer(t, DefaultConfig())

	resp, err := http.Get(ts.URL + "/api/v1/catalog")
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if env.Data.Total != 1 {
		t.Fatalf("expected 1 module, got %d", env.Data.Total)
	}
	if _, ok := srv.Cache().Get(cache.CatalogPrefix + "search:"); !ok {
		t.Fatal("expected the catalog page to be cached")
	}

	eng := srv.Gaze().Engine()
	eng.SetCatalog(catalog.NewIndex(append(modules, catalog.Entry{
		ID: "2", DisplayName: "Algebra", CanonicalContentURL: "http://cdn/modules/alg-1/index.html",
	}), eng.Config().RootMarker))

	if _, ok := srv.Cache().Get(cache.CatalogPrefix + "search:"); ok {
		t.Error("expected catalog pages to be invalidated")
	}
}
