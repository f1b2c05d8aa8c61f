package completion

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "gaze"}
	root.AddGroup(&cobra.Group{ID: "tools", Title: "Tools:"})
	root.AddCommand(NewCommand())
	return root
}

func TestGenerateBash(t *testing.T) {
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion bash failed: %v", err)
	}
	if !strings.Contains(out.String(), "gaze") {
		t.Errorf("script does not mention gaze:\n%.200s", out.String())
	}
}

func TestInstallAndUninstall(t *testing.T) {
	prefix := t.TempDir()
	t.Setenv("HOMEBREW_PREFIX", prefix)
	target := filepath.Join(prefix, "share", "zsh", "site-functions", "_gaze")

	run := func(args ...string) string {
		t.Helper()
		root := newRoot()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(append([]string{"completion"}, args...))
		if err := root.Execute(); err != nil {
			t.Fatalf("completion %v failed: %v", args, err)
		}
		return out.String()
	}

	if out := run("install", "--shell", "zsh"); !strings.Contains(out, "installed to: "+target) {
		t.Errorf("unexpected install output %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("completion file not written: %v", err)
	}

	run("uninstall", "--shell", "zsh")
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("completion file still present: %v", err)
	}

	if out := run("uninstall", "--shell", "zsh"); !strings.Contains(out, "No zsh completions found") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestInstallUnknownShell(t *testing.T) {
	t.Setenv("HOMEBREW_PREFIX", t.TempDir())
	root := newRoot()
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"completion", "install", "--shell", "tcsh"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected an error for an unsupported shell")
	}
}
