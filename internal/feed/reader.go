package feed

import (
	"context"
	"io"

	"github.com/agentstation/gaze/pkg/errors"
)

// ReaderSource streams lines from an io.Reader such as stdin.
type ReaderSource struct {
	Label  string
	R      io.Reader
	Filter Filter
}

// NewReader creates a ReaderSource with the module-line filter.
func NewReader(label string, r io.Reader) *ReaderSource {
	return &ReaderSource{Label: label, R: r}
}

// Name implements Source.
func (s *ReaderSource) Name() string {
	if s.Label == "" {
		return "reader"
	}
	return s.Label
}

// Stream implements Source. EOF ends the stream with a nil error.
func (s *ReaderSource) Stream(ctx context.Context, fn LineFunc) error {
	if err := scanLines(ctx, s.R, filterOrDefault(s.Filter), fn); err != nil {
		return errors.WrapIO("read", s.Name(), err)
	}
	return nil
}
