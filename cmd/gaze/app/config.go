package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/gaze/internal/catalogs"
	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/policies"
)

// EnvPrefix namespaces gaze environment variables, e.g. GAZE_FEED_KIND.
const EnvPrefix = "GAZE"

// Feed kinds.
const (
	FeedJournal = "journal"
	FeedFile    = "file"
	FeedStdin   = "stdin"
	FeedNone    = "none"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Output  string

	// Config file
	ConfigFile string

	// Feed
	FeedKind  string
	FeedUnit  string
	FeedSince string
	FeedPath  string

	// Catalog
	Catalog         catalogs.Config
	RefreshInterval time.Duration

	// Engine
	TickInterval     time.Duration
	EvaluateInterval time.Duration
	StaleAfter       time.Duration
	RootMarker       string
	InfoMarker       string

	// Policies
	DefaultLimitMinutes int
	Policies            []policies.Policy

	// Alerts
	RecentAlerts int

	// Server and remote access
	ServerHost        string
	ServerPort        int
	ServerPathPrefix  string
	ServerCORS        bool
	ServerCORSOrigins []string
	ServerMetrics     bool
	APIURL            string

	// NATS
	NATSURL           string
	NATSSubjectPrefix string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (GAZE_ prefix)
// 3. .env files
// 4. Config file (~/.gaze.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".gaze")
		}
	}

	// A missing default config file is fine; a broken or missing explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	seed, err := seedPolicies(seedEntries())
	if err != nil {
		return nil, err
	}

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Output:  viper.GetString("output"),

		ConfigFile: viper.ConfigFileUsed(),

		FeedKind:  strings.ToLower(viper.GetString("feed.kind")),
		FeedUnit:  viper.GetString("feed.unit"),
		FeedSince: viper.GetString("feed.since"),
		FeedPath:  viper.GetString("feed.path"),

		Catalog: catalogs.Config{
			Kind:        catalogs.Kind(viper.GetString("catalog.kind")),
			DSN:         viper.GetString("catalog.dsn"),
			URL:         viper.GetString("catalog.url"),
			Token:       viper.GetString("catalog.token"),
			TokenHeader: viper.GetString("catalog.token_header"),
			Timeout:     viper.GetDuration("catalog.timeout"),
			Path:        viper.GetString("catalog.path"),
		},
		RefreshInterval: viper.GetDuration("catalog.refresh_interval"),

		TickInterval:     viper.GetDuration("engine.tick_interval"),
		EvaluateInterval: viper.GetDuration("engine.evaluate_interval"),
		StaleAfter:       viper.GetDuration("engine.stale_after"),
		RootMarker:       viper.GetString("engine.root_marker"),
		InfoMarker:       viper.GetString("engine.info_marker"),

		DefaultLimitMinutes: viper.GetInt("policies.default_limit_minutes"),
		Policies:            seed,

		RecentAlerts: viper.GetInt("alerts.recent"),

		ServerHost:        viper.GetString("server.host"),
		ServerPort:        viper.GetInt("server.port"),
		ServerPathPrefix:  viper.GetString("server.path_prefix"),
		ServerCORS:        viper.GetBool("server.cors"),
		ServerCORSOrigins: viper.GetStringSlice("server.cors_origins"),
		ServerMetrics:     viper.GetBool("server.metrics"),
		APIURL:            viper.GetString("api_url"),

		NATSURL:           viper.GetString("nats.url"),
		NATSSubjectPrefix: viper.GetString("nats.subject_prefix"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if config.APIURL == "" {
		config.APIURL = fmt.Sprintf("http://%s:%d%s", config.ServerHost, config.ServerPort, config.ServerPathPrefix)
	}

	return config, nil
}

// setDefaults registers every key so AutomaticEnv can find it and an empty
// config still yields a working monitor.
func setDefaults() {
	viper.SetDefault("feed.kind", FeedJournal)
	viper.SetDefault("feed.unit", constants.JournalUnit)
	viper.SetDefault("feed.since", constants.JournalSince)
	viper.SetDefault("feed.path", "")

	viper.SetDefault("catalog.kind", string(catalogs.None))
	viper.SetDefault("catalog.dsn", "")
	viper.SetDefault("catalog.url", "")
	viper.SetDefault("catalog.token", "")
	viper.SetDefault("catalog.token_header", "")
	viper.SetDefault("catalog.timeout", constants.CatalogFetchTimeout)
	viper.SetDefault("catalog.path", "")
	viper.SetDefault("catalog.refresh_interval", constants.CatalogRefreshInterval)

	viper.SetDefault("engine.tick_interval", constants.TickInterval)
	viper.SetDefault("engine.evaluate_interval", constants.EvaluateInterval)
	viper.SetDefault("engine.stale_after", constants.StaleAfter)
	viper.SetDefault("engine.root_marker", constants.RootMarker)
	viper.SetDefault("engine.info_marker", constants.InfoMarker)

	viper.SetDefault("policies.default_limit_minutes", constants.DefaultLimitMinutes)
	viper.SetDefault("policies.seed", []string{})
	viper.SetDefault("alerts.recent", constants.RecentAlerts)

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.path_prefix", "/api/v1")
	viper.SetDefault("server.cors", false)
	viper.SetDefault("server.cors_origins", []string{})
	viper.SetDefault("server.metrics", true)
	viper.SetDefault("api_url", "")

	viper.SetDefault("nats.url", "")
	viper.SetDefault("nats.subject_prefix", "gaze")
}

// seedEntries returns policies.seed as "module key=minutes" entries. The
// config file form is a list; the environment form separates entries with
// semicolons because module names contain spaces.
func seedEntries() []string {
	if s, ok := viper.Get("policies.seed").(string); ok {
		var out []string
		for _, part := range strings.Split(s, ";") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return viper.GetStringSlice("policies.seed")
}

// seedPolicies parses "module key=minutes" entries into enabled policies,
// keeping their order.
func seedPolicies(entries []string) ([]policies.Policy, error) {
	out := make([]policies.Policy, 0, len(entries))
	for _, entry := range entries {
		i := strings.LastIndex(entry, "=")
		if i <= 0 {
			return nil, fmt.Errorf("policies.seed entry %q: want \"module key=minutes\"", entry)
		}
		key := strings.TrimSpace(entry[:i])
		minutes, err := strconv.Atoi(strings.TrimSpace(entry[i+1:]))
		if err != nil {
			return nil, fmt.Errorf("policies.seed entry %q: %w", entry, err)
		}
		out = append(out, policies.Policy{ModuleKey: key, LimitMinutes: minutes, Enabled: true})
	}
	return out, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, output string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if output != "" {
		c.Output = output
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so it wins over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
