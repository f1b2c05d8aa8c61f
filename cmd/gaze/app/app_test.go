package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/agentstation/gaze"
	"github.com/agentstation/gaze/internal/feed"
	"github.com/agentstation/gaze/pkg/errors"
)

// newTestApp builds an App on a clean viper with the feed disabled.
func newTestApp(t *testing.T) *App {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("GAZE_FEED_KIND", "none")
	t.Setenv("LOG_OUTPUT", "discard")

	app, err := New("1.0.0", "abc123", "2026-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app := newTestApp(t)

	if app.Version() != "1.0.0" || app.Commit() != "abc123" || app.Date() != "2026-01-01" || app.BuiltBy() != "test" {
		t.Errorf("unexpected version info %s %s %s %s", app.Version(), app.Commit(), app.Date(), app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if got := app.APIURL(); got != "http://localhost:8080/api/v1" {
		t.Errorf("APIURL() = %q", got)
	}
}

// TestApp_Gaze_Singleton verifies that Gaze() returns the same instance.
func TestApp_Gaze_Singleton(t *testing.T) {
	app := newTestApp(t)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]gaze.Client, goroutines)
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = app.Gaze()
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("Gaze() failed: %v", errs[i])
		}
		if results[i] != results[0] {
			t.Fatal("Gaze() returned different instances, expected singleton")
		}
	}
}

// TestApp_Gaze_StartWithoutFeed verifies that kind none starts with the
// feed off and the default policy seeded.
func TestApp_Gaze_StartWithoutFeed(t *testing.T) {
	app := newTestApp(t)
	gz, err := app.Gaze()
	if err != nil {
		t.Fatal(err)
	}
	if err := gz.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gz.Monitoring() {
		t.Error("expected monitoring off without a feed")
	}
	if p := gz.Engine().Policies(); len(p) != 1 || p[0].ModuleKey != "default" {
		t.Errorf("unexpected seed %+v", p)
	}
}

func TestApp_GazeBadCatalog(t *testing.T) {
	t.Setenv("GAZE_CATALOG_KIND", "mongo")
	app := newTestApp(t)
	if _, err := app.Gaze(); !errors.IsValidationError(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestApp_FeedSource(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		kind    string
		path    string
		check   func(feed.Source) bool
		wantErr bool
	}{
		{kind: FeedJournal, check: func(s feed.Source) bool {
			j, ok := s.(*feed.JournalSource)
			return ok && j.Unit == "oc4d.service" && j.Filter != nil
		}},
		{kind: FeedFile, path: "/var/log/access.log", check: func(s feed.Source) bool {
			f, ok := s.(*feed.FileSource)
			return ok && f.Path == "/var/log/access.log"
		}},
		{kind: FeedStdin, check: func(s feed.Source) bool {
			_, ok := s.(*feed.ReaderSource)
			return ok
		}},
		{kind: FeedNone, check: func(s feed.Source) bool { return s == nil }},
		{kind: FeedFile, wantErr: true},
		{kind: "kafka", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.kind+tt.path, func(t *testing.T) {
			app.config.FeedKind = tt.kind
			app.config.FeedPath = tt.path
			src, err := app.FeedSource()
			if (err != nil) != tt.wantErr {
				t.Fatalf("FeedSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(src) {
				t.Errorf("unexpected source %#v", src)
			}
		})
	}
}

func TestApp_ServerConfig(t *testing.T) {
	t.Setenv("GAZE_SERVER_PORT", "9191")
	t.Setenv("GAZE_NATS_URL", "nats://hub:4222")
	app := newTestApp(t)

	cfg := app.ServerConfig()
	if cfg.Port != 9191 || cfg.NATSURL != "nats://hub:4222" || cfg.NATSSubjectPrefix != "gaze" {
		t.Errorf("unexpected server config %+v", cfg)
	}
	if !strings.HasSuffix(app.APIURL(), ":9191/api/v1") {
		t.Errorf("APIURL() = %q", app.APIURL())
	}
}

func TestRootCommand(t *testing.T) {
	app := newTestApp(t)
	root := app.createRootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "-v", "--api-url", "http://hub:8080/api/v1"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "gaze version 1.0.0") {
		t.Errorf("unexpected version output %q", out.String())
	}
	if !app.config.Verbose || app.APIURL() != "http://hub:8080/api/v1" {
		t.Error("expected global flags applied to the config")
	}

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "catalog", "sessions", "alerts", "policies", "parse", "completion", "version"} {
		if !names[want] {
			t.Errorf("missing command %q", want)
		}
	}
}

func TestRootCommandRejectsUnknownFormat(t *testing.T) {
	app := newTestApp(t)
	root := app.createRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"version", "-o", "csv"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), `invalid format "csv"`) {
		t.Fatalf("expected a format error, got %v", err)
	}
}

func TestConfigFlag(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"serve", "--config", "/etc/gaze.yaml"}, "/etc/gaze.yaml"},
		{[]string{"--config=/tmp/g.yaml", "sessions"}, "/tmp/g.yaml"},
		{[]string{"parse", "--", "--config", "x"}, ""},
		{[]string{"sessions"}, ""},
	}
	for _, tt := range tests {
		if got := configFlag(tt.args); got != tt.want {
			t.Errorf("configFlag(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
