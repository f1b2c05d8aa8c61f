package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/cmd/gaze/cmd/alerts"
	"github.com/agentstation/gaze/cmd/gaze/cmd/catalog"
	"github.com/agentstation/gaze/cmd/gaze/cmd/completion"
	"github.com/agentstation/gaze/cmd/gaze/cmd/parse"
	"github.com/agentstation/gaze/cmd/gaze/cmd/policies"
	"github.com/agentstation/gaze/cmd/gaze/cmd/serve"
	"github.com/agentstation/gaze/cmd/gaze/cmd/sessions"
	"github.com/agentstation/gaze/internal/server"
)

// registerCommands wires every subcommand to the app.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(serve.NewCommand(a, a.ServerConfig()))
	rootCmd.AddCommand(catalog.NewCommand(a, a.CatalogConfig(), a.EngineConfig().RootMarker))

	// Server commands
	rootCmd.AddCommand(sessions.NewCommand(a))
	rootCmd.AddCommand(alerts.NewCommand(a, a.config.RecentAlerts))
	rootCmd.AddCommand(policies.NewCommand(a))

	// Tools
	rootCmd.AddCommand(parse.NewCommand(a, a.Parser()))
	rootCmd.AddCommand(completion.NewCommand())
	rootCmd.AddCommand(a.NewVersionCommand())
}

// ServerConfig builds the HTTP server defaults from the app configuration.
func (a *App) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	c := a.config
	if c.ServerHost != "" {
		cfg.Host = c.ServerHost
	}
	if c.ServerPort > 0 {
		cfg.Port = c.ServerPort
	}
	if c.ServerPathPrefix != "" {
		cfg.PathPrefix = c.ServerPathPrefix
	}
	cfg.CORSEnabled = c.ServerCORS
	cfg.CORSOrigins = c.ServerCORSOrigins
	cfg.MetricsEnabled = c.ServerMetrics
	cfg.NATSURL = c.NATSURL
	if c.NATSSubjectPrefix != "" {
		cfg.NATSSubjectPrefix = c.NATSSubjectPrefix
	}
	return cfg
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: "tools",
		Short:   "Show version information",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gaze version %s\n", a.version)
			fmt.Fprintf(out, "commit: %s\n", a.commit)
			fmt.Fprintf(out, "built: %s\n", a.date)
			fmt.Fprintf(out, "built by: %s\n", a.builtBy)
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
