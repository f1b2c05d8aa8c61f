package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/errors"
	"github.com/agentstation/gaze/pkg/policies"
)

// Config configures an Engine. Zero durations and empty markers take their
// defaults; DefaultLimitMinutes 0 means no default policy is seeded.
type Config struct {
	TickInterval     time.Duration
	ReapInterval     time.Duration
	EvaluateInterval time.Duration
	StaleAfter       time.Duration

	InfoMarker string
	RootMarker string

	// DefaultLimitMinutes seeds an enabled "default" policy.
	DefaultLimitMinutes int

	// Policies are seeded after the default policy, in order.
	Policies []policies.Policy

	Clock  Clock
	Logger *zerolog.Logger
}

// DefaultConfig returns the standard cadence: 1s tick and reap, 5s
// evaluation, 5 minute staleness window and a 1 minute default policy.
func DefaultConfig() Config {
	return Config{
		TickInterval:        constants.TickInterval,
		ReapInterval:        constants.TickInterval,
		EvaluateInterval:    constants.EvaluateInterval,
		StaleAfter:          constants.StaleAfter,
		InfoMarker:          constants.InfoMarker,
		RootMarker:          constants.RootMarker,
		DefaultLimitMinutes: constants.DefaultLimitMinutes,
	}
}

func (c *Config) applyDefaults() {
	if c.TickInterval == 0 {
		c.TickInterval = constants.TickInterval
	}
	if c.ReapInterval == 0 {
		c.ReapInterval = c.TickInterval
	}
	if c.EvaluateInterval == 0 {
		c.EvaluateInterval = constants.EvaluateInterval
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = constants.StaleAfter
	}
	if c.InfoMarker == "" {
		c.InfoMarker = constants.InfoMarker
	}
	if c.RootMarker == "" {
		c.RootMarker = constants.RootMarker
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
}

func (c *Config) validate() error {
	switch {
	case c.TickInterval < 0:
		return errors.NewConfigError("engine", "tick_interval must be positive", nil)
	case c.ReapInterval < 0:
		return errors.NewConfigError("engine", "reap_interval must be positive", nil)
	case c.EvaluateInterval < 0:
		return errors.NewConfigError("engine", "evaluate_interval must be positive", nil)
	case c.StaleAfter < 0:
		return errors.NewConfigError("engine", "stale_after must be positive", nil)
	case c.DefaultLimitMinutes < 0:
		return errors.NewConfigError("engine", "default_limit_minutes must not be negative", nil)
	}
	return nil
}

func (c *Config) seed() []policies.Policy {
	var seed []policies.Policy
	if c.DefaultLimitMinutes > 0 {
		seed = append(seed, policies.Policy{
			ModuleKey:    policies.DefaultKey,
			LimitMinutes: c.DefaultLimitMinutes,
			Enabled:      true,
		})
	}
	return append(seed, c.Policies...)
}
