// Package parse provides a command that runs access log lines through the
// parser, for checking marker configuration against real logs.
package parse

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/cmd/application"
	"github.com/agentstation/gaze/internal/cmd/emoji"
	"github.com/agentstation/gaze/internal/cmd/output"
	"github.com/agentstation/gaze/internal/feed"
	"github.com/agentstation/gaze/pkg/accesslog"
)

// NewCommand creates the parse command.
func NewCommand(app application.Application, parser *accesslog.Parser) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "parse [file]",
		GroupID: "tools",
		Short:   "Extract access events from log lines",
		Long: `Parse reads access log lines from a file, or stdin when no file is given
or the file is "-", and prints the client address and raw module id of every
line the monitor would count.`,
		Example: `  journalctl -u oc4d.service --since today | gaze parse
  gaze parse /var/log/oc4d/access.log -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			label := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in, label = f, args[0]
			}
			return run(cmd, app, parser, label, in)
		},
	}
	return cmd
}

func run(cmd *cobra.Command, app application.Application, parser *accesslog.Parser, label string, in io.Reader) error {
	src := feed.NewReader(label, in)
	src.Filter = feed.All

	var (
		seen   int
		events []accesslog.Event
	)
	err := src.Stream(cmd.Context(), func(line string) {
		seen++
		if ev, ok := parser.Parse(line); ok {
			events = append(events, ev)
		}
	})
	if err != nil {
		return err
	}

	app.Logger().Debug().Int("lines", seen).Int("events", len(events)).Str("source", label).Msg("Parsed access log")

	format := output.DetectFormat(app.OutputFormat())
	if err := output.Write(cmd.OutOrStdout(), format, events, func(bool) output.Data {
		return output.EventsTable(events)
	}); err != nil {
		return err
	}

	if format.Tabular() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d events from %d lines\n", emoji.Info, len(events), seen)
	}
	return nil
}
