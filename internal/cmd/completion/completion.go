// Package completion installs and removes gaze shell completion scripts.
package completion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/agentstation/gaze/internal/cmd/emoji"
	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/errors"
)

// Supported shells.
const (
	ShellBash       = "bash"
	ShellZsh        = "zsh"
	ShellFish       = "fish"
	ShellPowerShell = "powershell"
)

// Installable lists the shells Install and Uninstall manage.
var Installable = []string{ShellBash, ShellZsh, ShellFish}

// location describes where a shell looks for completion files, relative to
// a Homebrew prefix and to the user's home directory.
type location struct {
	brew []string
	home []string
}

var locations = map[string]location{
	ShellBash: {
		brew: []string{"etc", "bash_completion.d", "gaze"},
		home: []string{".bash_completion.d", "gaze"},
	},
	ShellZsh: {
		brew: []string{"share", "zsh", "site-functions", "_gaze"},
		home: []string{".zsh", "completions", "_gaze"},
	},
	ShellFish: {
		brew: []string{"share", "fish", "vendor_completions.d", "gaze.fish"},
		home: []string{".config", "fish", "completions", "gaze.fish"},
	},
}

// brewPrefixes are probed for a brew binary when HOMEBREW_PREFIX is unset.
var brewPrefixes = []string{"/opt/homebrew", "/usr/local"}

// Path returns where the completion file for shell is installed. Homebrew
// locations win over the user's home directory.
func Path(shell string) (string, error) {
	loc, ok := locations[shell]
	if !ok {
		return "", errors.NewValidationError("shell", shell, "must be one of bash, zsh, fish")
	}

	if prefix := os.Getenv("HOMEBREW_PREFIX"); prefix != "" {
		return filepath.Join(append([]string{prefix}, loc.brew...)...), nil
	}
	for _, prefix := range brewPrefixes {
		if _, err := os.Stat(filepath.Join(prefix, "bin", "brew")); err == nil {
			return filepath.Join(append([]string{prefix}, loc.brew...)...), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, loc.home...)...), nil
}

// Generate writes the completion script for shell.
func Generate(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case ShellBash:
		return root.GenBashCompletion(w)
	case ShellZsh:
		return root.GenZshCompletion(w)
	case ShellFish:
		return root.GenFishCompletion(w, true)
	case ShellPowerShell:
		return root.GenPowerShellCompletionWithDesc(w)
	default:
		return errors.NewValidationError("shell", shell, "unsupported shell")
	}
}

// Install writes the completion script for shell to its Path.
func Install(root *cobra.Command, shell string, out io.Writer) error {
	if !slices.Contains(Installable, shell) {
		return errors.NewValidationError("shell", shell, "must be one of bash, zsh, fish")
	}
	target, err := Path(shell)
	if err != nil {
		return fmt.Errorf("failed to determine %s completion path: %w", shell, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), constants.DirPermissions); err != nil {
		return errors.NewIOError("create directory", filepath.Dir(target), err)
	}

	file, err := os.Create(target) // #nosec G304 - target comes from Path
	if err != nil {
		return errors.NewIOError("create", target, err)
	}
	defer func() { _ = file.Close() }()

	if err := Generate(root, shell, file); err != nil {
		return fmt.Errorf("failed to generate %s completion: %w", shell, err)
	}

	fmt.Fprintf(out, "%s %s completions installed to: %s\n", emoji.Success, shell, target)
	return nil
}

// Uninstall removes the completion file for shell. A missing file is not an
// error.
func Uninstall(shell string, out io.Writer) error {
	target, err := Path(shell)
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		fmt.Fprintf(out, "%s No %s completions found at: %s\n", emoji.Info, shell, target)
		return nil
	}
	if err := os.Remove(target); err != nil {
		return errors.NewIOError("remove", target, err)
	}
	fmt.Fprintf(out, "%s Removed %s completions from: %s\n", emoji.Success, shell, target)
	return nil
}
