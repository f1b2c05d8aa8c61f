package feed

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/errors"
)

// CommandSource streams the standard output of a long-running command.
type CommandSource struct {
	Command string
	Args    []string
	Filter  Filter
}

// Name implements Source.
func (s *CommandSource) Name() string {
	return s.commandLine()
}

func (s *CommandSource) commandLine() string {
	return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
}

// Stream implements Source. The process is killed when ctx is cancelled.
// If the process exits on its own the result is a ProcessError carrying its
// standard error output.
func (s *CommandSource) Stream(ctx context.Context, fn LineFunc) error {
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)

	stderr := &limitedBuffer{max: 4096}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.NewProcessError("open stdout", s.commandLine(), "", err)
	}
	if err := cmd.Start(); err != nil {
		return errors.NewProcessError("start", s.commandLine(), "", err)
	}

	scanErr := scanLines(ctx, stdout, filterOrDefault(s.Filter), fn)
	if scanErr != nil {
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil
	}

	cause := waitErr
	if cause == nil {
		cause = scanErr
	}
	if cause == nil {
		cause = errors.ErrFeedStopped
	}
	pe := errors.NewProcessError("stream", s.commandLine(), strings.TrimSpace(stderr.String()), cause)
	if ee, ok := waitErr.(*exec.ExitError); ok {
		pe.ExitCode = ee.ExitCode()
	}
	return pe
}

// JournalSource follows a systemd unit's journal with journalctl.
//
// It remembers the timestamp of the last journal line it read and how many
// lines carried that timestamp. When Stream is called again after the process
// ended, journalctl starts at that second and the lines already delivered are
// skipped, so a restart neither replays the Since window nor loses lines.
type JournalSource struct {
	Unit   string
	Since  string
	Binary string
	Filter Filter

	mu     sync.Mutex
	resume journalMark
}

// journalMark is a position in the journal at second precision.
type journalMark struct {
	stamp string // the timestamp field as printed by journalctl
	at    time.Time
	count int // lines read so far that carry stamp
}

// NewJournal creates a JournalSource with the default unit and start window.
func NewJournal(unit, since string) *JournalSource {
	return &JournalSource{Unit: unit, Since: since}
}

// Args returns the journalctl arguments for the next Stream call.
func (s *JournalSource) Args() []string {
	s.mu.Lock()
	mark := s.resume
	s.mu.Unlock()
	return s.args(mark)
}

func (s *JournalSource) args(mark journalMark) []string {
	unit := s.Unit
	if unit == "" {
		unit = constants.JournalUnit
	}
	since := s.Since
	if since == "" {
		since = constants.JournalSince
	}
	if mark.stamp != "" {
		since = mark.at.UTC().Format(time.DateTime) + " UTC"
	}
	return []string{"-u", unit, "-f", "--no-pager", "-o", "short-iso", "--since", since}
}

// Name implements Source.
func (s *JournalSource) Name() string {
	unit := s.Unit
	if unit == "" {
		unit = constants.JournalUnit
	}
	return "journal:" + unit
}

// Stream implements Source.
func (s *JournalSource) Stream(ctx context.Context, fn LineFunc) error {
	s.mu.Lock()
	mark := s.resume
	s.mu.Unlock()

	bin := s.Binary
	if bin == "" {
		bin = "journalctl"
	}
	filter := filterOrDefault(s.Filter)
	skip := mark.count

	cmd := &CommandSource{Command: bin, Args: s.args(mark), Filter: func(line string) bool {
		stamp, at, ok := journalStamp(line)
		if !ok {
			return filter(line)
		}
		if mark.stamp != "" {
			if at.Before(mark.at) {
				return false
			}
			if stamp == mark.stamp && skip > 0 {
				skip--
				return false
			}
		}
		s.advance(stamp, at)
		return filter(line)
	}}
	return cmd.Stream(ctx, fn)
}

func (s *JournalSource) advance(stamp string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stamp == s.resume.stamp {
		s.resume.count++
		return
	}
	s.resume = journalMark{stamp: stamp, at: at, count: 1}
}

// journalStamp parses the leading short-iso timestamp of a journal line.
// Older systemd prints the offset as +0000, newer as +00:00.
func journalStamp(line string) (string, time.Time, bool) {
	stamp, _, _ := strings.Cut(line, " ")
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if at, err := time.Parse(layout, stamp); err == nil {
			return stamp, at, true
		}
	}
	return "", time.Time{}, false
}

// limitedBuffer keeps the first max bytes written to it.
type limitedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
