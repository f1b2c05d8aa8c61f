// Package completion provides shell completion management commands.
package completion

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/internal/cmd/completion"
)

// NewCommand creates the completion command. It replaces cobra's generated
// one so that install and uninstall sit next to the script generators.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "completion",
		GroupID: "tools",
		Short:   "Manage shell completions",
		Long: `Generate completion scripts to stdout, or install them where your shell
looks for completions.`,
		Example: `  source <(gaze completion bash)
  gaze completion install
  gaze completion install --shell zsh
  gaze completion uninstall`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	for _, shell := range []string{completion.ShellBash, completion.ShellZsh, completion.ShellFish, completion.ShellPowerShell} {
		cmd.AddCommand(newGenerateCommand(shell))
	}
	cmd.AddCommand(newInstallCommand(), newUninstallCommand())
	return cmd
}

func newGenerateCommand(shell string) *cobra.Command {
	return &cobra.Command{
		Use:                   shell,
		Short:                 "Generate the " + shell + " completion script",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return completion.Generate(cmd.Root(), shell, cmd.OutOrStdout())
		},
	}
}

func newInstallCommand() *cobra.Command {
	var shells []string
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install completions for bash, zsh and fish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, shell := range selected(shells) {
				if err := completion.Install(cmd.Root(), shell, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&shells, "shell", nil, "Shells to install for (default all)")
	return cmd
}

func newUninstallCommand() *cobra.Command {
	var shells []string
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove installed completions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, shell := range selected(shells) {
				if err := completion.Uninstall(shell, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&shells, "shell", nil, "Shells to uninstall for (default all)")
	return cmd
}

func selected(shells []string) []string {
	if len(shells) == 0 {
		return completion.Installable
	}
	return shells
}
