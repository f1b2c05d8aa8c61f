package gaze

import (
	"context"
	"time"

	"github.com/agentstation/gaze/pkg/errors"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ Lifecycle = (*client)(nil)
	_ Monitor   = (*client)(nil)
)

// Lifecycle controls the background work of a Client.
type Lifecycle interface {
	// Start runs the engine, loads the catalog once, starts the catalog
	// refresher and, when monitoring is enabled, the feed. It returns
	// immediately; cancel ctx or call Shutdown to stop.
	Start(ctx context.Context) error

	// Shutdown stops everything Start started and waits for it, or for ctx.
	Shutdown(ctx context.Context) error

	// Running reports whether Start has been called without Shutdown.
	Running() bool
}

// Monitor turns the access log feed on and off. Timers keep running while
// the feed is off: sessions age, get evaluated and eventually reaped.
type Monitor interface {
	StartMonitoring() error
	StopMonitoring() error
	Monitoring() bool
}

// Start implements Lifecycle.
func (c *client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.NewResourceError("start", "client", "", errors.ErrAlreadyRunning)
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.engine.Run(c.ctx)
	}()

	if err := c.RefreshCatalog(c.ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Initial catalog load failed, using raw module ids")
	}

	if c.options.autoRefresh {
		if err := c.AutoRefreshOn(); err != nil {
			return err
		}
	}

	if c.options.monitoring && c.options.feed != nil {
		if err := c.StartMonitoring(); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown implements Lifecycle.
func (c *client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	_ = c.StopMonitoring()
	_ = c.AutoRefreshOff()

	c.mu.Lock()
	c.cancel()
	c.started = false
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info().Msg("Monitor shut down")
		return nil
	case <-ctx.Done():
		return errors.WrapResource("shutdown", "client", "", ctx.Err())
	}
}

// Running implements Lifecycle.
func (c *client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// StartMonitoring starts the feed loop. Lines are ingested at the engine
// clock's current time. When the feed ends on its own it is started again
// after the configured restart delay.
func (c *client) StartMonitoring() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return errors.NewResourceError("start", "feed", "", errors.ErrNotRunning)
	}
	if c.options.feed == nil {
		return errors.NewConfigError("feed", "no feed source configured", nil)
	}
	if c.feedCancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(c.ctx)
	done := make(chan struct{})
	c.feedCancel, c.feedDone = cancel, done

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		c.runFeed(ctx)

		c.mu.Lock()
		if c.feedDone == done {
			c.feedCancel, c.feedDone = nil, nil
			cancel()
		}
		c.mu.Unlock()
	}()
	return nil
}

// StopMonitoring stops the feed loop and waits for it to exit.
func (c *client) StopMonitoring() error {
	c.mu.Lock()
	cancel, done := c.feedCancel, c.feedDone
	c.feedCancel, c.feedDone = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Monitoring reports whether the feed loop is running.
func (c *client) Monitoring() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedCancel != nil
}

func (c *client) runFeed(ctx context.Context) {
	src := c.options.feed
	logger := c.logger.With().Str("feed", src.Name()).Logger()

	for {
		logger.Info().Msg("Feed started")
		c.publish(EventFeedStarted, FeedStatus{Source: src.Name()})

		err := src.Stream(ctx, func(line string) {
			c.engine.Ingest(line)
		})

		status := FeedStatus{Source: src.Name()}
		if err != nil {
			status.Error = err.Error()
			logger.Warn().Err(err).Msg("Feed stopped")
		} else {
			logger.Info().Msg("Feed stopped")
		}
		c.publish(EventFeedStopped, status)

		if ctx.Err() != nil || c.options.restartDelay == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.options.restartDelay):
		}
	}
}
