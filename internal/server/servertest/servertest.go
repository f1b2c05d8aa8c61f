// Package servertest runs a gaze API server over httptest for command and
// client tests.
package servertest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentstation/gaze"
	"github.com/agentstation/gaze/internal/cmd/application"
	"github.com/agentstation/gaze/internal/server"
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/engine"
)

// Modules is the catalog every test server starts with.
var Modules = catalog.Static{
	{
		ID: "1", DisplayName: "Chemistry 101", Description: "Introductory chemistry",
		CanonicalContentURL: "http://cdn/modules/chem-101/index.html",
		Categories:          []catalog.Category{{Name: "Science"}},
	},
	{
		ID: "2", DisplayName: "World History",
		CanonicalContentURL: "http://cdn/modules/hist-200/index.html",
		Categories:          []catalog.Category{{Name: "Humanities"}},
	},
}

// New starts a monitor and an API server in front of it. The engine's
// timers are slowed to an hour so tests drive evaluation themselves. It
// returns the API root URL, e.g. http://127.0.0.1:port/api/v1.
func New(t testing.TB, opts ...gaze.Option) (string, gaze.Client) {
	t.Helper()

	cfg := engine.DefaultConfig()
	cfg.TickInterval = time.Hour
	cfg.ReapInterval = time.Hour
	cfg.EvaluateInterval = time.Hour

	base := []gaze.Option{
		gaze.WithEngineConfig(cfg),
		gaze.WithAutoRefresh(false),
		gaze.WithCatalogSource(Modules),
	}
	gz, err := gaze.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("gaze.New() failed: %v", err)
	}
	if err := gz.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	srv, err := server.New(&application.Mock{
		GazeFunc: func() (gaze.Client, error) { return gz, nil },
	}, server.DefaultConfig())
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
		_ = gz.Shutdown(ctx)
	})
	return ts.URL + "/api/v1", gz
}
