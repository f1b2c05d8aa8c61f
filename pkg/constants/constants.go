// Package constants provides shared constants used throughout the gaze codebase.
// This includes engine cadences, log markers, timeouts and file permissions
// that should be consistent across the application.
package constants

import "time"

// Engine cadence constants
const (
	// TickInterval is how often session durations are refreshed and stale
	// sessions are reaped.
	TickInterval = 1 * time.Second

	// EvaluateInterval is how often sessions are checked against their time limits.
	EvaluateInterval = 5 * time.Second

	// StaleAfter is how long a client may stay silent before its session is reaped.
	StaleAfter = 5 * time.Minute

	// CatalogRefreshInterval is the default interval between catalog refetches.
	CatalogRefreshInterval = 5 * time.Minute

	// CatalogFetchTimeout bounds a single catalog fetch.
	CatalogFetchTimeout = 30 * time.Second
)

// Access log markers
const (
	// InfoMarker precedes the client address in the service's access log.
	InfoMarker = "info:"

	// RootMarker precedes the module identifier in request paths and content URLs.
	RootMarker = "/modules/"

	// DefaultPolicyKey is the module key of the fallback time limit.
	DefaultPolicyKey = "default"

	// DefaultLimitMinutes is the limit of the default policy seeded at startup.
	DefaultLimitMinutes = 1

	// RecentAlerts is how many alerts the display layer shows.
	RecentAlerts = 3
)

// Feed constants
const (
	// JournalUnit is the systemd unit whose log is tailed by default.
	JournalUnit = "oc4d.service"

	// JournalSince is how far back the journal feed starts.
	JournalSince = "1 minute ago"

	// FeedRestartDelay is the pause before a stopped feed is restarted.
	FeedRestartDelay = 2 * time.Second

	// MaxLineLength is the longest log line a feed will deliver.
	MaxLineLength = 64 * 1024
)

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for outbound HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the server and engine.
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached API responses.
	CacheTTL = 30 * time.Second

	// CacheCleanupInterval is how often expired cache entries are removed.
	CacheCleanupInterval = time.Minute
)

// Channel sizes
const (
	// EventBufferSize is the buffer of the event broker and its transports.
	EventBufferSize = 256

	// LineBufferSize is the buffer between a feed and the engine.
	LineBufferSize = 1024
)
