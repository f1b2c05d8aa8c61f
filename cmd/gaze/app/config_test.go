package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/agentstation/gaze/internal/catalogs"
	"github.com/agentstation/gaze/pkg/policies"
)

func loadClean(t *testing.T) *Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	return config
}

// TestLoadConfig verifies the defaults.
func TestLoadConfig(t *testing.T) {
	config := loadClean(t)

	if config.FeedKind != FeedJournal || config.FeedUnit != "oc4d.service" || config.FeedSince != "1 minute ago" {
		t.Errorf("unexpected feed defaults %+v", config)
	}
	if config.Catalog.Kind != catalogs.None {
		t.Errorf("unexpected catalog kind %q", config.Catalog.Kind)
	}
	if config.TickInterval != time.Second || config.EvaluateInterval != 5*time.Second || config.StaleAfter != 5*time.Minute {
		t.Errorf("unexpected engine cadence %v %v %v", config.TickInterval, config.EvaluateInterval, config.StaleAfter)
	}
	if config.DefaultLimitMinutes != 1 || config.RecentAlerts != 3 {
		t.Errorf("unexpected policy defaults %d %d", config.DefaultLimitMinutes, config.RecentAlerts)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies GAZE_ variables override defaults.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("GAZE_FEED_KIND", "FILE")
	t.Setenv("GAZE_FEED_PATH", "/var/log/oc4d.log")
	t.Setenv("GAZE_CATALOG_KIND", "sqlite")
	t.Setenv("GAZE_CATALOG_DSN", "/srv/oc4d/dev.db")
	t.Setenv("GAZE_ENGINE_TICK_INTERVAL", "2s")
	t.Setenv("GAZE_POLICIES_DEFAULT_LIMIT_MINUTES", "0")
	t.Setenv("GAZE_POLICIES_SEED", "Chemistry 101=20; World History=5")

	config := loadClean(t)

	if config.FeedKind != FeedFile || config.FeedPath != "/var/log/oc4d.log" {
		t.Errorf("unexpected feed %q %q", config.FeedKind, config.FeedPath)
	}
	if config.Catalog.Kind != catalogs.SQLite || config.Catalog.DSN != "/srv/oc4d/dev.db" {
		t.Errorf("unexpected catalog %+v", config.Catalog)
	}
	if config.TickInterval != 2*time.Second {
		t.Errorf("unexpected tick %v", config.TickInterval)
	}

	want := []policies.Policy{
		{ModuleKey: "Chemistry 101", LimitMinutes: 20, Enabled: true},
		{ModuleKey: "World History", LimitMinutes: 5, Enabled: true},
	}
	if len(config.Policies) != len(want) {
		t.Fatalf("unexpected seed %+v", config.Policies)
	}
	for i := range want {
		if config.Policies[i] != want[i] {
			t.Errorf("seed[%d] = %+v, want %+v", i, config.Policies[i], want[i])
		}
	}

	app := &App{config: config}
	eng := app.EngineConfig()
	if eng.DefaultLimitMinutes != 0 || eng.ReapInterval != 2*time.Second {
		t.Errorf("unexpected engine config %+v", eng)
	}
}

// TestConfig_File verifies loading an explicit YAML config file.
func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaze.yaml")
	yaml := `
feed:
  kind: stdin
engine:
  root_marker: /content/
policies:
  seed:
    - "Chemistry 101=15"
server:
  port: 9300
  cors_origins: [https://dash.example.edu]
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("LOG_OUTPUT", "discard")
	app, err := New("dev", "none", "unknown", "test")
	if err != nil {
		t.Fatal(err)
	}
	if err := app.Execute(context.Background(), []string{"--config", path, "version"}); err != nil {
		t.Fatal(err)
	}

	c := app.Config()
	if c.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", c.ConfigFile, path)
	}
	if c.FeedKind != FeedStdin || c.RootMarker != "/content/" || c.ServerPort != 9300 {
		t.Errorf("unexpected config %+v", c)
	}
	if len(c.Policies) != 1 || c.Policies[0].ModuleKey != "Chemistry 101" {
		t.Errorf("unexpected seed %+v", c.Policies)
	}
	if len(c.ServerCORSOrigins) != 1 {
		t.Errorf("unexpected origins %v", c.ServerCORSOrigins)
	}
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("GAZE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestSeedPolicies(t *testing.T) {
	if _, err := seedPolicies([]string{"Chemistry 101"}); err == nil {
		t.Error("expected an error without minutes")
	}
	if _, err := seedPolicies([]string{"Chemistry 101=soon"}); err == nil {
		t.Error("expected an error for non-numeric minutes")
	}
	got, err := seedPolicies([]string{"a=b=3"})
	if err != nil || got[0].ModuleKey != "a=b" || got[0].LimitMinutes != 3 {
		t.Errorf("unexpected parse %+v %v", got, err)
	}
}
