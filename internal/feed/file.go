package feed

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/agentstation/gaze/pkg/errors"
	"github.com/agentstation/gaze/pkg/logging"
)

// FileSource follows a log file as it grows, like tail -F. Rotation
// (the path being recreated) and truncation both restart reading from the
// beginning of the new content.
type FileSource struct {
	Path string

	// FromStart replays the existing content before following.
	FromStart bool

	Filter Filter
	Logger *zerolog.Logger
}

// NewFile creates a FileSource that starts at the current end of path.
func NewFile(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name implements Source.
func (s *FileSource) Name() string {
	return "file:" + s.Path
}

// Stream implements Source. It returns an IOError if the file cannot be
// opened or watched, and nil when ctx is cancelled.
func (s *FileSource) Stream(ctx context.Context, fn LineFunc) error {
	logger := s.Logger
	if logger == nil {
		logger = logging.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapIO("watch", s.Path, err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so a rotated file is seen when it is recreated.
	if err := watcher.Add(filepath.Dir(s.Path)); err != nil {
		return errors.WrapIO("watch", filepath.Dir(s.Path), err)
	}

	t := &tailer{path: s.Path, filter: filterOrDefault(s.Filter), fn: fn}
	if err := t.open(!s.FromStart); err != nil {
		return err
	}
	defer t.close()

	if err := t.drain(); err != nil {
		return err
	}

	target := filepath.Clean(s.Path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return errors.WrapIO("watch", s.Path, errors.ErrFeedStopped)
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}

			switch {
			case ev.Has(fsnotify.Create):
				logger.Debug().Str("path", s.Path).Msg("log file recreated, reopening")
				t.close()
				if err := t.open(false); err != nil {
					return err
				}
				if err := t.drain(); err != nil {
					return err
				}
			case ev.Has(fsnotify.Write):
				if err := t.drain(); err != nil {
					return err
				}
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				logger.Debug().Str("path", s.Path).Msg("log file moved away, waiting for it to return")
				t.close()
			}

		case werr, ok := <-watcher.Errors:
			if !ok {
				return errors.WrapIO("watch", s.Path, errors.ErrFeedStopped)
			}
			logger.Warn().Err(werr).Str("path", s.Path).Msg("file watcher error")
		}
	}
}

// tailer reads complete lines appended to a file.
type tailer struct {
	path    string
	filter  Filter
	fn      LineFunc
	f       *os.File
	r       *bufio.Reader
	offset  int64
	partial strings.Builder
}

func (t *tailer) open(atEnd bool) error {
	f, err := os.Open(t.path)
	if err != nil {
		return errors.WrapIO("open", t.path, err)
	}
	t.offset = 0
	if atEnd {
		if t.offset, err = f.Seek(0, io.SeekEnd); err != nil {
			_ = f.Close()
			return errors.WrapIO("seek", t.path, err)
		}
	}
	t.f = f
	t.r = bufio.NewReader(f)
	t.partial.Reset()
	return nil
}

func (t *tailer) close() {
	if t.f != nil {
		_ = t.f.Close()
		t.f = nil
	}
}

// drain reads everything available. A shrunken file is read again from the
// start.
func (t *tailer) drain() error {
	if t.f == nil {
		return nil
	}

	if info, err := t.f.Stat(); err == nil && info.Size() < t.offset {
		if _, err := t.f.Seek(0, io.SeekStart); err != nil {
			return errors.WrapIO("seek", t.path, err)
		}
		t.offset = 0
		t.r.Reset(t.f)
		t.partial.Reset()
	}

	for {
		chunk, err := t.r.ReadString('\n')
		t.offset += int64(len(chunk))
		if strings.HasSuffix(chunk, "\n") {
			t.partial.WriteString(strings.TrimRight(chunk, "\r\n"))
			line := t.partial.String()
			t.partial.Reset()
			if t.filter(line) {
				t.fn(line)
			}
		} else {
			t.partial.WriteString(chunk)
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.WrapIO("read", t.path, err)
		}
	}
}
