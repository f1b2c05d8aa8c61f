package app

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/gaze/internal/cmd/emoji"
	"github.com/agentstation/gaze/internal/cmd/output"
)

// Execute runs the gaze CLI with the given arguments. An explicit --config
// is applied before the commands are built so their flag defaults come from
// that file.
func (a *App) Execute(ctx context.Context, args []string) error {
	if path := configFlag(args); path != "" && path != a.config.ConfigFile {
		viper.Set("config", path)
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		a.config = config
	}

	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gaze",
		Short:   "CDN module access monitor",
		Version: a.version,
		Long: `Gaze follows the access log of a content server, works out which module
each client is using and for how long, and raises an alert when a client stays
on a module longer than its timer allows.

Run "gaze serve" on the content server; the sessions, alerts and policies
commands talk to it over HTTP.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "remote", Title: "Server Commands:"},
		&cobra.Group{ID: "tools", Title: "Tools:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.gaze.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml, wide")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("api-url", "", "gaze server API URL for remote commands")

	rootCmd.SetVersionTemplate("gaze {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand applies global flags before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
	)
	if _, err := output.ParseFormat(a.config.Output); err != nil {
		return err
	}
	if level := mustGetString(cmd, "log-level"); level != "" {
		a.config.LogLevel = level
	}
	if url := mustGetString(cmd, "api-url"); url != "" {
		a.config.APIURL = url
	}

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// configFlag returns the value of --config in args, if any.
func configFlag(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--":
			return ""
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(emoji.Error + " Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
