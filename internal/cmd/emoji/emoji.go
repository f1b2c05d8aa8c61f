// Package emoji provides symbol constants for CLI output.
package emoji

// Symbols used as line prefixes in human-readable command output.
const (
	// Success marks a completed operation.
	Success = "✓"

	// Error marks a failed operation.
	Error = "✗"

	// Stop marks a shutdown in progress.
	Stop = "✗"

	// Info marks informational messages such as empty results and summaries.
	Info = "ℹ"
)
