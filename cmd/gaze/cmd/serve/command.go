// Package serve provides the command that runs the monitor and its HTTP API.
package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/cmd/application"
	"github.com/agentstation/gaze/internal/cmd/emoji"
	"github.com/agentstation/gaze/internal/server"
	"github.com/agentstation/gaze/pkg/constants"
)

// NewCommand creates the serve command. defaults seeds the flag defaults,
// normally from the loaded configuration.
func NewCommand(app application.Application, defaults server.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server", "monitor"},
		GroupID: "core",
		Short:   "Run the access monitor with its REST API and live updates",
		Long: `Start the access monitor: follow the CDN access log, track one session per
client, raise alerts when a session exceeds its timer, and expose everything
over HTTP.

Features:
  - Sessions, alerts, policies and catalog endpoints under /api/v1
  - Server-Sent Events (/api/v1/updates/stream) and WebSocket (/api/v1/updates/ws)
  - Optional republishing of events to NATS
  - Periodic catalog refresh with cached catalog pages
  - Prometheus text metrics on /metrics
  - Graceful shutdown on SIGINT/SIGTERM`,
		Example: `  # Follow the oc4d journal and serve on :8080
  gaze serve

  # Tail a file instead of the journal
  GAZE_FEED_KIND=file GAZE_FEED_PATH=/var/log/oc4d/access.log gaze serve

  # Listen on all interfaces with CORS and NATS
  gaze serve --host 0.0.0.0 --cors --nats nats://localhost:4222`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, app)
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	cmd.Flags().Bool("cors", defaults.CORSEnabled, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", defaults.CORSOrigins, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Duration("cache-ttl", defaults.CacheTTL, "Catalog page cache TTL")
	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	cmd.Flags().Bool("metrics", defaults.MetricsEnabled, "Enable metrics endpoint")
	cmd.Flags().String("nats", defaults.NATSURL, "NATS server URL for event republishing")
	cmd.Flags().String("nats-prefix", defaults.NATSSubjectPrefix, "NATS subject prefix")

	return cmd
}

// runServer starts the monitor and the API server.
func runServer(cmd *cobra.Command, app application.Application) error {
	cfg := parseConfig(cmd)
	logger := app.Logger()

	gz, err := app.Gaze()
	if err != nil {
		return fmt.Errorf("creating monitor: %w", err)
	}

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Start()

	// The monitor outlives the signal context so shutdown can drain it.
	if err := gz.Start(context.WithoutCancel(cmd.Context())); err != nil {
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("starting monitor: %w", err)
	}

	logger.Info().
		Str("addr", srv.Addr()).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("monitoring", gz.Monitoring()).
		Int("modules", gz.Engine().Catalog().Len()).
		Msg("Starting gaze")

	stop := func(ctx context.Context) {
		if err := gz.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Monitor shutdown had issues")
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Background services shutdown had issues")
		}
	}

	return startWithGracefulShutdown(cmd.Context(), cmd.OutOrStdout(), srv.HTTPServer(), stop, logger)
}

// parseConfig parses command flags into server configuration.
func parseConfig(cmd *cobra.Command) server.Config {
	cfg := server.DefaultConfig()
	cfg.Port = mustGetInt(cmd, "port")
	cfg.Host = mustGetString(cmd, "host")
	cfg.PathPrefix = mustGetString(cmd, "prefix")
	cfg.CORSEnabled = mustGetBool(cmd, "cors")
	cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	cfg.CacheTTL = mustGetDuration(cmd, "cache-ttl")
	cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	cfg.NATSURL = mustGetString(cmd, "nats")
	cfg.NATSSubjectPrefix = mustGetString(cmd, "nats-prefix")

	// Origins imply CORS.
	if len(cfg.CORSOrigins) > 0 {
		cfg.CORSEnabled = true
	}
	return cfg
}

// startWithGracefulShutdown serves until ctx is cancelled, then stops the
// HTTP server and calls stop with a bounded context.
func startWithGracefulShutdown(ctx context.Context, out io.Writer, httpServer *http.Server, stop func(context.Context), logger *zerolog.Logger) error {
	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		stop(context.Background())
		return fmt.Errorf("listening on %s: %w", httpServer.Addr, err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	fmt.Fprintf(out, "%s gaze listening on %s\n", emoji.Success, ln.Addr())
	fmt.Fprintln(out, "   Press Ctrl+C to stop")

	select {
	case err := <-serverErr:
		stop(context.Background())
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		fmt.Fprintf(out, "\n%s Shutting down gaze...\n", emoji.Stop)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout*2)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server shutdown had issues")
		}
		stop(shutdownCtx)

		logger.Info().Msg("Server stopped gracefully")
		fmt.Fprintf(out, "%s gaze stopped\n", emoji.Success)
		return nil
	}
}

func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
