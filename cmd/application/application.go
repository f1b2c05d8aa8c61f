// Package application provides the application interface for gaze commands.
//
// Commands and the HTTP server accept this interface rather than the
// concrete App type from cmd/gaze/app, so they can be tested with a stub:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            gz, err := app.Gaze()
//	            if err != nil {
//	                return err
//	            }
//	            snap := gz.Engine().Snapshot(gz.Engine().Now())
//	            // ... print snap
//	            return nil
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/gaze"
)

// Application provides what commands need from the application container.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Gaze returns the monitor client, building it on first use.
	Gaze() (gaze.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// APIURL returns the base URL of a running gaze server, used by
	// commands that query it remotely.
	APIURL() string

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string
}
