package server

import (
	"net/http"

	"github.com/agentstation/gaze/internal/server/handlers"
	"github.com/agentstation/gaze/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.gz,
		s.cache,
		s.broker,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
	)

	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Sessions and alerts
	mux.HandleFunc("GET "+prefix+"/sessions", h.HandleListSessions)
	mux.HandleFunc("GET "+prefix+"/sessions/{client}", h.HandleGetSession)
	mux.HandleFunc("GET "+prefix+"/alerts", h.HandleListAlerts)

	// Policies
	mux.HandleFunc("GET "+prefix+"/policies", h.HandleListPolicies)
	mux.HandleFunc("POST "+prefix+"/policies", h.HandlePutPolicy)
	mux.HandleFunc("POST "+prefix+"/policies/{key}/enable", h.HandleEnablePolicy)
	mux.HandleFunc("POST "+prefix+"/policies/{key}/disable", h.HandleDisablePolicy)
	mux.HandleFunc("POST "+prefix+"/policies/{key}/toggle", h.HandleTogglePolicy)
	mux.HandleFunc("DELETE "+prefix+"/policies/{key}", h.HandleDeletePolicy)

	// Catalog
	mux.HandleFunc("GET "+prefix+"/catalog", h.HandleListCatalog)
	mux.HandleFunc("POST "+prefix+"/catalog/refresh", h.HandleRefreshCatalog)

	// Monitor and admin
	mux.HandleFunc("GET "+prefix+"/monitor", h.HandleMonitorStatus)
	mux.HandleFunc("POST "+prefix+"/monitor", h.HandleMonitorAction)
	mux.HandleFunc("GET "+prefix+"/stats", h.HandleStats)

	// Real-time endpoints
	mux.HandleFunc("GET "+prefix+"/updates/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/updates/stream", h.HandleSSE)

	// Metrics endpoint (optional)
	if s.config.MetricsEnabled {
		mux.HandleFunc("GET /metrics", h.HandleMetrics)
	}
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		} else {
			corsConfig.AllowAll = true
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logger(s.logger),
	)(handler)
}
