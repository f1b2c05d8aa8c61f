// Package sessions provides the command that shows live sessions of a
// running gaze server.
package sessions

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/cmd/application"
	"github.com/agentstation/gaze/internal/cmd/emoji"
	"github.com/agentstation/gaze/internal/cmd/output"
	"github.com/agentstation/gaze/internal/cmd/remote"
)

// NewCommand creates the sessions command.
func NewCommand(app application.Application) *cobra.Command {
	var showStats bool

	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		GroupID: "remote",
		Short:   "Show live client sessions",
		Long: `Sessions queries a running gaze server and prints one row per client
with the module it is on, how long it has been there and the timer that
applies.`,
		Example: `  gaze sessions
  gaze sessions --stats -o wide
  GAZE_API_URL=http://hub.local:8080/api/v1 gaze sessions -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := remote.New(app.APIURL()).Sessions(cmd.Context())
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			out := cmd.OutOrStdout()

			if !format.Tabular() {
				return output.Write(out, format, snap, nil)
			}

			if len(snap.Sessions) == 0 {
				fmt.Fprintf(out, "%s No active sessions\n", emoji.Info)
			} else if err := output.Write(out, format, snap, func(wide bool) output.Data {
				return output.SessionsTable(snap, wide)
			}); err != nil {
				return err
			}

			if showStats {
				fmt.Fprintln(out)
				return output.Write(out, format, snap.Stats, func(bool) output.Data {
					return output.StatsTable(snap.Stats)
				})
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showStats, "stats", false, "Also print the derived counters")
	return cmd
}
