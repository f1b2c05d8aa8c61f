// Package policies provides commands that manage the timer policies of a
// running gaze server.
package policies

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/cmd/application"
	"github.com/agentstation/gaze/internal/cmd/emoji"
	"github.com/agentstation/gaze/internal/cmd/output"
	"github.com/agentstation/gaze/internal/cmd/remote"
	"github.com/agentstation/gaze/pkg/errors"
	"github.com/agentstation/gaze/pkg/policies"
)

// NewCommand creates the policies command and its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "policies",
		Aliases: []string{"timers", "policy"},
		GroupID: "remote",
		Short:   "List and manage module timers",
		Long: `Policies lists the timers of a running gaze server. A timer's key is a
module display name, or "default" for the timer that applies to every module
without its own.`,
		Example: `  gaze policies
  gaze policies set "Chemistry 101" 20
  gaze policies toggle "Chemistry 101"
  gaze policies remove "Chemistry 101"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := remote.New(app.APIURL()).Policies(cmd.Context())
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), list, func(bool) output.Data {
				return output.PoliciesTable(list)
			})
		},
	}

	cmd.AddCommand(
		newSetCommand(app),
		newActionCommand(app, "enable", "Resume a paused timer", (*remote.Client).EnablePolicy),
		newActionCommand(app, "disable", "Pause a timer without removing it", (*remote.Client).DisablePolicy),
		newActionCommand(app, "toggle", "Pause an active timer or resume a paused one", (*remote.Client).TogglePolicy),
		newActionCommand(app, "remove", "Delete a timer", (*remote.Client).RemovePolicy),
	)
	return cmd
}

func newSetCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "set <module> <minutes>",
		Aliases: []string{"put", "add"},
		Short:   "Create or replace a timer",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[1])
			if err != nil || minutes <= 0 {
				return errors.NewValidationError("minutes", args[1], "must be a whole number greater than zero")
			}
			p, err := remote.New(app.APIURL()).PutPolicy(cmd.Context(), args[0], minutes)
			if err != nil {
				return err
			}
			return report(cmd, app, "set", p)
		},
	}
}

type action func(*remote.Client, context.Context, string) (policies.Policy, error)

func newActionCommand(app application.Application, name, short string, do action) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <module>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := do(remote.New(app.APIURL()), cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report(cmd, app, name, p)
		},
	}
}

// report prints the affected policy: a one-line confirmation for tables,
// the policy itself for structured formats.
func report(cmd *cobra.Command, app application.Application, verb string, p policies.Policy) error {
	format := output.DetectFormat(app.OutputFormat())
	if !format.Tabular() {
		return output.Write(cmd.OutOrStdout(), format, p, nil)
	}

	state := "active"
	if !p.Enabled {
		state = "paused"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q: %d minute(s), %s\n", emoji.Success, verb, p.ModuleKey, p.LimitMinutes, state)
	return nil
}
