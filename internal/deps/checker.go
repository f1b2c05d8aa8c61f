// Package deps checks that the external programs a feed relies on are
// installed.
package deps

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// Dependency describes an external program.
type Dependency struct {
	Name        string
	DisplayName string
	// CheckCommands are tried in order; the first found on PATH wins.
	CheckCommands []string
	// MinVersion is optional. When set, the program is asked for its version.
	MinVersion string
	InstallURL string
}

// Status is the result of checking a Dependency.
type Status struct {
	Available  bool
	Path       string
	Version    string
	CheckError error
}

// Journalctl is required by the journal feed.
var Journalctl = Dependency{
	Name:          "journalctl",
	DisplayName:   "systemd journalctl",
	CheckCommands: []string{"journalctl"},
	InstallURL:    "https://www.freedesktop.org/software/systemd/man/journalctl.html",
}

// Hint returns a one-line installation hint for a missing dependency.
func (d Dependency) Hint() string {
	if d.InstallURL == "" {
		return fmt.Sprintf("install %s", d.DisplayName)
	}
	return fmt.Sprintf("install %s (%s)", d.DisplayName, d.InstallURL)
}

// Check verifies whether dep is available on the system.
func Check(ctx context.Context, dep Dependency) Status {
	var status Status

	for _, name := range dep.CheckCommands {
		path, err := exec.LookPath(name)
		if err != nil {
			continue
		}

		status.Available = true
		status.Path = path

		if dep.MinVersion != "" {
			version, err := getVersion(ctx, path)
			if err != nil {
				status.CheckError = fmt.Errorf("found %s but could not detect version: %w", name, err)
				return status
			}
			status.Version = version
			if !meetsMinVersion(version, dep.MinVersion) {
				status.CheckError = fmt.Errorf("found %s version %s but requires %s or later", name, version, dep.MinVersion)
			}
		}
		return status
	}

	if len(dep.CheckCommands) > 0 {
		status.CheckError = fmt.Errorf("%s not found in PATH (tried: %s)", dep.DisplayName, strings.Join(dep.CheckCommands, ", "))
	}
	return status
}

// getVersion runs the program with common version flags until one prints
// something that looks like a version.
func getVersion(ctx context.Context, path string) (string, error) {
	for _, flag := range []string{"--version", "-v", "version"} {
		//nolint:gosec // path comes from exec.LookPath of a known command
		out, err := exec.CommandContext(ctx, path, flag).CombinedOutput()
		if err != nil {
			continue
		}
		if version := extractVersion(string(out)); version != "" {
			return version, nil
		}
	}
	return "", fmt.Errorf("no version in output")
}

var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`),
	// systemd prints "systemd 252 (252.22-1)"
	regexp.MustCompile(`systemd (\d+)`),
}

func extractVersion(output string) string {
	for _, re := range versionPatterns {
		if m := re.FindStringSubmatch(output); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// meetsMinVersion compares dotted numeric versions part by part. Missing
// parts count as zero.
func meetsMinVersion(detected, required string) bool {
	d := strings.Split(strings.TrimPrefix(detected, "v"), ".")
	r := strings.Split(strings.TrimPrefix(required, "v"), ".")

	for i := 0; i < max(len(d), len(r)); i++ {
		dv, rv := part(d, i), part(r, i)
		if dv != rv {
			return dv > rv
		}
	}
	return true
}

func part(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, _ := strconv.Atoi(parts[i])
	return n
}
