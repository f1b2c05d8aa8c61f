// Package gaze monitors how long each client stays on a CDN-served learning
// module and raises an alert when a configured time limit is exceeded.
//
// A Client wires together:
//   - an access log feed (journal, followed file or any reader)
//   - the session and timer reconciliation engine
//   - a module catalog that maps raw module ids to display names
//   - event hooks for sessions, alerts, policies, catalog and feed changes
//
// Example usage:
//
//	gz, err := gaze.New(
//	    gaze.WithFeed(feed.NewJournal("oc4d.service", "1 minute ago")),
//	    gaze.WithCatalogSource(sqlite.New("/var/lib/oc4d/modules.db")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gz.OnAlert(func(a alerts.Alert) {
//	    log.Println(a.Message)
//	})
//
//	if err := gz.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer gz.Shutdown(context.Background())
//
//	_, _ = gz.Engine().PutPolicy("Chemistry Basics", 20)
package gaze

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/gaze/pkg/engine"
	"github.com/agentstation/gaze/pkg/errors"
	"github.com/agentstation/gaze/pkg/logging"
)

// Client is a running access monitor.
type Client interface {
	// Engine gives direct access to sessions, policies, alerts and snapshots.
	Engine() *engine.Engine

	// Lifecycle starts and stops the background work
	Lifecycle

	// Monitor turns the access log feed on and off
	Monitor

	// CatalogRefresher keeps the module catalog current
	CatalogRefresher

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options
	engine  *engine.Engine
	logger  *zerolog.Logger

	*hooks

	mu      sync.Mutex
	started bool
	ctx     context.Context // parent of every background goroutine
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// feed state
	feedCancel context.CancelFunc
	feedDone   chan struct{}

	// refresher state
	refreshCancel context.CancelFunc
	refreshDone   chan struct{}
}

// New creates a Client. Nothing runs until Start is called.
func New(opts ...Option) (Client, error) {
	o := defaults()
	if err := o.apply(opts...); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = logging.Default()
	}
	if o.engine.Logger == nil {
		o.engine.Logger = logger
	}

	eng, err := engine.New(o.engine)
	if err != nil {
		return nil, errors.WrapResource("create", "engine", "", err)
	}

	c := &client{
		options: o,
		engine:  eng,
		logger:  logger,
		hooks:   newHooks(logger),
	}
	eng.Subscribe(c.hooks.dispatch)
	return c, nil
}

// Engine returns the reconciliation engine.
func (c *client) Engine() *engine.Engine {
	return c.engine
}

// publish delivers a client-level event through the same hooks as engine events.
func (c *client) publish(typ engine.EventType, data any) {
	c.hooks.dispatch(engine.Event{Type: typ, Timestamp: c.engine.Now(), Data: data})
}
