// Package server provides the HTTP API of the gaze monitor: JSON endpoints
// over the engine, live updates over SSE and WebSocket, and optional
// republishing of events to NATS.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/gaze"
	"github.com/agentstation/gaze/cmd/application"
	"github.com/agentstation/gaze/internal/server/cache"
	"github.com/agentstation/gaze/internal/server/events"
	"github.com/agentstation/gaze/internal/server/events/adapters"
	"github.com/agentstation/gaze/internal/server/sse"
	ws "github.com/agentstation/gaze/internal/server/websocket"
	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/engine"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	gz             gaze.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	nats           *adapters.NATSSubscriber
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startOnce      sync.Once
	startTime      time.Time
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	gz, err := app.Gaze()
	if err != nil {
		return nil, fmt.Errorf("creating monitor: %w", err)
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = constants.CacheTTL
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/v1"
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))
	logger.Debug().Msg("WebSocket and SSE transports subscribed to event broker")

	ctx, cancel := context.WithCancel(context.Background())

	server := &Server{
		gz:             gz,
		cache:          cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	if cfg.NATSURL != "" {
		sub, err := adapters.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			// Live updates over HTTP still work without NATS.
			logger.Warn().Err(err).Str("url", cfg.NATSURL).Msg("NATS unavailable, events will not be republished")
		} else {
			server.nats = sub
			broker.Subscribe(sub)
			logger.Info().
				Str("url", cfg.NATSURL).
				Str("subject", sub.Subject("*")).
				Msg("Republishing events to NATS")
		}
	}

	server.connectHooks()
	return server, nil
}

// connectHooks forwards every monitor event to the broker and drops cached
// catalog pages when the catalog changes.
func (s *Server) connectHooks() {
	s.gz.OnEvent(func(ev engine.Event) {
		if ev.Type == engine.EventCatalogUpdated {
			n := s.cache.DeletePrefix(cache.CatalogPrefix)
			s.cache.DeletePrefix(cache.StatsPrefix)
			s.logger.Debug().Int("invalidated", n).Msg("Catalog cache invalidated")
		}
		s.broker.PublishEvent(events.FromEngine(ev))
	})
	s.logger.Debug().Msg("Monitor hooks connected to event broker")
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster).
// It is safe to call more than once.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		s.logger.Debug().Msg("Starting background services")
		s.wg.Add(3)
		go func() {
			defer s.wg.Done()
			s.broker.Run(s.ctx)
		}()
		go func() {
			defer s.wg.Done()
			s.wsHub.Run(s.ctx)
		}()
		go func() {
			defer s.wg.Done()
			s.sseBroadcaster.Run(s.ctx)
		}()
	})
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Addr returns the listen address from the configuration.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// HTTPServer returns an http.Server for the configured address and timeouts.
// WriteTimeout is left unset because the update streams are long-lived.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
}

// Shutdown stops background services and waits for them, or for ctx.
// Streaming clients are disconnected.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Gaze returns the monitor the server exposes.
func (s *Server) Gaze() gaze.Client {
	return s.gz
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *ws.Hub {
	return s.wsHub
}

// SSEBroadcaster returns the SSE broadcaster.
func (s *Server) SSEBroadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
