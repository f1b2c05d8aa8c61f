// Package alerts provides the command that lists alerts raised by a running
// gaze server.
package alerts

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/cmd/application"
	"github.com/agentstation/gaze/internal/cmd/emoji"
	"github.com/agentstation/gaze/internal/cmd/output"
	"github.com/agentstation/gaze/internal/cmd/remote"
	"github.com/agentstation/gaze/pkg/errors"
)

// NewCommand creates the alerts command. defaultLimit is the number of
// alerts shown without --limit.
func NewCommand(app application.Application, defaultLimit int) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "alerts",
		GroupID: "remote",
		Short:   "Show the most recent time limit alerts",
		Long: `Alerts queries a running gaze server for the alerts it raised, newest
first. Use --limit 0 to list every alert since the server started.`,
		Example: `  gaze alerts
  gaze alerts --limit 0 -o wide`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.NewValidationError("limit", limit, "must not be negative")
			}

			list, err := remote.New(app.APIURL()).Alerts(cmd.Context(), limit)
			if err != nil {
				return err
			}

			format := output.DetectFormat(app.OutputFormat())
			out := cmd.OutOrStdout()
			if len(list.Alerts) == 0 && format.Tabular() {
				fmt.Fprintf(out, "%s No alerts\n", emoji.Success)
				return nil
			}

			if err := output.Write(out, format, list, func(wide bool) output.Data {
				return output.AlertsTable(list.Alerts, wide)
			}); err != nil {
				return err
			}
			if list.Total > list.Count && format.Tabular() {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s showing %d of %d alerts\n", emoji.Info, list.Count, list.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "Number of alerts to show (0 for all)")
	return cmd
}
