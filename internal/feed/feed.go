// Package feed delivers raw access log lines to the engine.
//
// A Source blocks in Stream until its context is cancelled or the upstream
// ends. Ending on its own is terminal for that Source instance: the caller
// decides whether to start a new one.
package feed

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/agentstation/gaze/pkg/accesslog"
	"github.com/agentstation/gaze/pkg/constants"
)

// LineFunc receives one line, without its trailing newline.
type LineFunc func(line string)

// Source is a stream of log lines.
type Source interface {
	// Name identifies the source in logs and events.
	Name() string

	// Stream calls fn for every line that passes the source's filter. It
	// returns nil when ctx is cancelled or the upstream ended cleanly.
	Stream(ctx context.Context, fn LineFunc) error
}

// Filter decides whether a line is forwarded.
type Filter func(line string) bool

// ModuleLines forwards only lines that mention the default module root.
func ModuleLines(line string) bool {
	return accesslog.Contains(line)
}

// All forwards every line.
func All(string) bool { return true }

func filterOrDefault(f Filter) Filter {
	if f == nil {
		return ModuleLines
	}
	return f
}

// scanLines feeds r to fn line by line until EOF, a read error or ctx ends.
// Lines longer than MaxLineLength are discarded up to their newline and
// reading continues with the next line.
func scanLines(ctx context.Context, r io.Reader, filter Filter, fn LineFunc) error {
	br := bufio.NewReaderSize(r, 4096)
	var (
		line      []byte
		oversized bool
	)
	deliver := func() {
		if !oversized && len(line) > 0 {
			if s := strings.TrimRight(string(line), "\r\n"); filter(s) {
				fn(s)
			}
		}
		line, oversized = line[:0], false
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		chunk, err := br.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > constants.MaxLineLength+1 {
				oversized = true
			} else {
				line = append(line, chunk...)
			}
		}

		switch err {
		case nil:
			deliver()
		case bufio.ErrBufferFull:
		case io.EOF:
			deliver()
			return nil
		default:
			return err
		}
	}
}
