package gaze

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/gaze/internal/feed"
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/engine"
	"github.com/agentstation/gaze/pkg/errors"
)

// FeedSource is a stream of raw access log lines.
type FeedSource = feed.Source

// Option is a function that configures a Client.
type Option func(*options) error

// options holds the configuration assembled by New.
type options struct {
	engine engine.Config

	feed         FeedSource
	monitoring   bool
	restartDelay time.Duration

	catalog         catalog.Source
	autoRefresh     bool
	refreshInterval time.Duration
	fetchTimeout    time.Duration

	logger *zerolog.Logger
}

func defaults() *options {
	return &options{
		engine:          engine.DefaultConfig(),
		monitoring:      true,
		restartDelay:    constants.FeedRestartDelay,
		catalog:         catalog.Static(nil),
		autoRefresh:     true,
		refreshInterval: constants.CatalogRefreshInterval,
		fetchTimeout:    constants.CatalogFetchTimeout,
	}
}

func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// WithEngineConfig replaces the engine configuration. The logger and clock
// set by WithLogger and WithClock still apply.
func WithEngineConfig(cfg engine.Config) Option {
	return func(o *options) error {
		clock, logger := o.engine.Clock, o.engine.Logger
		o.engine = cfg
		if o.engine.Clock == nil {
			o.engine.Clock = clock
		}
		if o.engine.Logger == nil {
			o.engine.Logger = logger
		}
		return nil
	}
}

// WithClock sets the clock used by the engine.
func WithClock(clock engine.Clock) Option {
	return func(o *options) error {
		o.engine.Clock = clock
		return nil
	}
}

// WithLogger sets the logger used by the client and its engine.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		o.engine.Logger = logger
		return nil
	}
}

// WithFeed sets the access log source. Without one, lines can only be
// delivered with Engine().Ingest.
func WithFeed(src FeedSource) Option {
	return func(o *options) error {
		o.feed = src
		return nil
	}
}

// WithMonitoring configures whether Start also starts the feed.
func WithMonitoring(enabled bool) Option {
	return func(o *options) error {
		o.monitoring = enabled
		return nil
	}
}

// WithFeedRestartDelay sets the pause before a feed that ended on its own is
// started again. Zero disables restarts.
func WithFeedRestartDelay(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.NewValidationError("feedRestartDelay", d, "must not be negative")
		}
		o.restartDelay = d
		return nil
	}
}

// WithCatalogSource sets where module display names come from.
func WithCatalogSource(src catalog.Source) Option {
	return func(o *options) error {
		if src == nil {
			src = catalog.Static(nil)
		}
		o.catalog = src
		return nil
	}
}

// WithAutoRefresh configures whether the catalog is refetched periodically.
func WithAutoRefresh(enabled bool) Option {
	return func(o *options) error {
		o.autoRefresh = enabled
		return nil
	}
}

// WithRefreshInterval configures how often the catalog is refetched.
func WithRefreshInterval(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return errors.NewValidationError("refreshInterval", interval, "refresh interval must be positive")
		}
		o.refreshInterval = interval
		return nil
	}
}

// WithFetchTimeout bounds a single catalog fetch.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		o.fetchTimeout = timeout
		return nil
	}
}
