package gaze

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/errors"
)

// Compile-time interface check to ensure proper implementation.
var _ CatalogRefresher = (*client)(nil)

// CatalogRefresher keeps the module catalog current.
type CatalogRefresher interface {
	// RefreshCatalog fetches the catalog once and swaps in the rebuilt index.
	// On failure the previous index stays in place.
	RefreshCatalog(ctx context.Context) error

	// AutoRefreshOn begins periodic refreshes.
	AutoRefreshOn() error

	// AutoRefreshOff stops periodic refreshes.
	AutoRefreshOff() error
}

// RefreshCatalog implements CatalogRefresher.
func (c *client) RefreshCatalog(ctx context.Context) error {
	if c.options.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.fetchTimeout)
		defer cancel()
	}

	entries, err := c.options.catalog.Fetch(ctx)
	if err != nil {
		return errors.WrapResource("fetch", "catalog", "", err)
	}

	ix := catalog.NewIndex(entries, c.engine.Config().RootMarker)
	c.engine.SetCatalog(ix)
	c.logger.Debug().
		Int("modules", ix.Len()).
		Int("categories", ix.CategoryCount()).
		Msg("Catalog refreshed")
	return nil
}

// AutoRefreshOn implements CatalogRefresher.
func (c *client) AutoRefreshOn() error {
	if c.options.refreshInterval <= 0 {
		return &errors.ValidationError{
			Field:   "refreshInterval",
			Value:   c.options.refreshInterval,
			Message: "refresh interval must be positive",
		}
	}

	// Stop any existing refresher to prevent leaking its goroutine
	if err := c.AutoRefreshOff(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return errors.NewResourceError("start", "catalog refresher", "", errors.ErrNotRunning)
	}

	ctx, cancel := context.WithCancel(c.ctx)
	done := make(chan struct{})
	c.refreshCancel, c.refreshDone = cancel, done

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)

		ticker := time.NewTicker(c.options.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.RefreshCatalog(ctx); err != nil {
					if stderrors.Is(err, context.Canceled) {
						return
					}
					c.logger.Warn().Err(err).Msg("Catalog refresh failed, keeping previous catalog")
				}
			}
		}
	}()
	return nil
}

// AutoRefreshOff implements CatalogRefresher.
func (c *client) AutoRefreshOff() error {
	c.mu.Lock()
	cancel, done := c.refreshCancel, c.refreshDone
	c.refreshCancel, c.refreshDone = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
