package server

import (
	"time"

	"github.com/agentstation/gaze/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Performance settings
	CacheTTL time.Duration

	// HTTP timeouts. WriteTimeout does not apply to the streaming endpoints.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Features
	MetricsEnabled bool

	// NATS republishing, disabled when NATSURL is empty
	NATSURL           string
	NATSSubjectPrefix string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "localhost",
		Port:              8080,
		PathPrefix:        "/api/v1",
		CORSEnabled:       false,
		CORSOrigins:       []string{},
		CacheTTL:          constants.CacheTTL,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MetricsEnabled:    true,
		NATSSubjectPrefix: "gaze",
	}
}
