// Package app provides the application context and dependency management
// for the gaze CLI: configuration, logging, and the lazily built monitor.
package app

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/gaze"
	"github.com/agentstation/gaze/cmd/application"
	"github.com/agentstation/gaze/internal/catalogs"
	"github.com/agentstation/gaze/internal/deps"
	"github.com/agentstation/gaze/internal/feed"
	"github.com/agentstation/gaze/pkg/accesslog"
	"github.com/agentstation/gaze/pkg/engine"
	"github.com/agentstation/gaze/pkg/errors"
)

var _ application.Application = (*App)(nil)

// App represents the gaze application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Monitor instance (lazy-initialized, singleton)
	mu sync.RWMutex
	gz gaze.Client
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "failed to load configuration", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Output
}

// APIURL returns the base URL of the gaze server used by remote commands.
func (a *App) APIURL() string {
	return a.config.APIURL
}

// Gaze returns the monitor, creating it lazily if needed.
func (a *App) Gaze() (gaze.Client, error) {
	a.mu.RLock()
	if a.gz != nil {
		gz := a.gz
		a.mu.RUnlock()
		return gz, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.gz != nil {
		return a.gz, nil
	}

	opts, err := a.buildOptions()
	if err != nil {
		return nil, err
	}
	gz, err := gaze.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "monitor", "", err)
	}

	a.gz = gz
	return gz, nil
}

// Shutdown stops the monitor if it was created.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.RLock()
	gz := a.gz
	a.mu.RUnlock()

	if gz == nil || !gz.Running() {
		return nil
	}
	if err := gz.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to stop monitor during shutdown")
		return err
	}
	return nil
}

// EngineConfig builds the engine configuration from the app configuration.
func (a *App) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	c := a.config

	if c.TickInterval > 0 {
		cfg.TickInterval = c.TickInterval
		cfg.ReapInterval = c.TickInterval
	}
	if c.EvaluateInterval > 0 {
		cfg.EvaluateInterval = c.EvaluateInterval
	}
	if c.StaleAfter > 0 {
		cfg.StaleAfter = c.StaleAfter
	}
	if c.RootMarker != "" {
		cfg.RootMarker = c.RootMarker
	}
	if c.InfoMarker != "" {
		cfg.InfoMarker = c.InfoMarker
	}
	cfg.DefaultLimitMinutes = c.DefaultLimitMinutes
	cfg.Policies = c.Policies
	cfg.Logger = a.logger
	return cfg
}

// Parser returns an access log parser using the configured markers.
func (a *App) Parser() *accesslog.Parser {
	cfg := a.EngineConfig()
	return accesslog.NewParser(cfg.InfoMarker, cfg.RootMarker)
}

// FeedSource builds the configured feed, or nil for kind none.
func (a *App) FeedSource() (feed.Source, error) {
	filter := feed.Filter(a.Parser().Contains)

	switch a.config.FeedKind {
	case "", FeedJournal:
		src := feed.NewJournal(a.config.FeedUnit, a.config.FeedSince)
		src.Filter = filter
		return src, nil
	case FeedFile:
		if a.config.FeedPath == "" {
			return nil, errors.NewConfigError("feed", "file feed needs feed.path", nil)
		}
		src := feed.NewFile(a.config.FeedPath)
		src.Filter = filter
		src.Logger = a.logger
		return src, nil
	case FeedStdin:
		src := feed.NewReader("stdin", os.Stdin)
		src.Filter = filter
		return src, nil
	case FeedNone:
		return nil, nil
	default:
		return nil, errors.NewValidationError("feed.kind", a.config.FeedKind, "must be one of journal, file, stdin, none")
	}
}

// CatalogConfig returns the catalog backend configuration.
func (a *App) CatalogConfig() catalogs.Config {
	return a.config.Catalog
}

// buildOptions constructs monitor options from the app configuration.
func (a *App) buildOptions() ([]gaze.Option, error) {
	src, err := catalogs.New(a.config.Catalog)
	if err != nil {
		return nil, err
	}

	opts := []gaze.Option{
		gaze.WithEngineConfig(a.EngineConfig()),
		gaze.WithLogger(a.logger),
		gaze.WithCatalogSource(src),
	}

	if a.config.Catalog.Timeout > 0 {
		opts = append(opts, gaze.WithFetchTimeout(a.config.Catalog.Timeout))
	}
	if a.config.RefreshInterval > 0 {
		opts = append(opts, gaze.WithRefreshInterval(a.config.RefreshInterval))
	} else {
		opts = append(opts, gaze.WithAutoRefresh(false))
	}

	fs, err := a.FeedSource()
	if err != nil {
		return nil, err
	}
	if js, ok := fs.(*feed.JournalSource); ok {
		a.checkJournalctl(js)
	}
	if fs != nil {
		opts = append(opts, gaze.WithFeed(fs))
	} else {
		opts = append(opts, gaze.WithMonitoring(false))
	}

	return opts, nil
}

// checkJournalctl warns when the journal feed's binary is missing. The feed
// itself keeps retrying, so a later install is picked up without a restart.
func (a *App) checkJournalctl(js *feed.JournalSource) {
	dep := deps.Journalctl
	if js.Binary != "" {
		dep.CheckCommands = []string{js.Binary}
	}
	if status := deps.Check(context.Background(), dep); !status.Available {
		a.logger.Warn().Err(status.CheckError).Str("hint", dep.Hint()).Msg("Journal feed cannot start")
	}
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithGaze sets a prebuilt monitor (useful for testing).
func WithGaze(gz gaze.Client) Option {
	return func(a *App) error {
		a.gz = gz
		return nil
	}
}
