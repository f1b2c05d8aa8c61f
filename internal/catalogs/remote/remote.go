// Package remote fetches the module catalog from an HTTP endpoint that
// returns a JSON array of modules:
//
//	[{"id": "...", "name": "Chemistry 101", "description": "...",
//	  "language": "en", "indexHtmlUrl": "http://cdn/modules/chem-101/index.html",
//	  "logoUrl": "...", "categories": [{"name": "Science"}]}]
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/agentstation/gaze/internal/transport"
	"github.com/agentstation/gaze/pkg/catalog"
)

// Source fetches the catalog over HTTP.
type Source struct {
	url    string
	client *transport.Client

	token       string
	tokenHeader string
	timeout     time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithToken authenticates requests. An empty header means a bearer token.
func WithToken(token, header string) Option {
	return func(s *Source) {
		s.token = token
		s.tokenHeader = header
	}
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.timeout = d
	}
}

// New creates a Source for url.
func New(url string, opts ...Option) *Source {
	s := &Source{url: url}
	for _, opt := range opts {
		opt(s)
	}
	s.client = transport.New("catalog", transport.AuthFor(s.token, s.tokenHeader))
	return s
}

type module struct {
	ID           flexibleID `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Language     string     `json:"language"`
	IndexHTMLURL string     `json:"indexHtmlUrl"`
	LogoURL      string     `json:"logoUrl"`
	Categories   []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"categories"`
}

// flexibleID accepts both string and numeric ids.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	*f = flexibleID(strings.TrimSpace(string(b)))
	return nil
}

// Fetch implements catalog.Source.
func (s *Source) Fetch(ctx context.Context) ([]catalog.Entry, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var mods []module
	if err := s.client.Get(ctx, s.url, &mods); err != nil {
		return nil, err
	}

	entries := make([]catalog.Entry, 0, len(mods))
	for _, m := range mods {
		e := catalog.Entry{
			ID:                  string(m.ID),
			DisplayName:         m.Name,
			Description:         m.Description,
			CanonicalContentURL: m.IndexHTMLURL,
			Language:            m.Language,
			LogoURL:             m.LogoURL,
		}
		for _, c := range m.Categories {
			e.Categories = append(e.Categories, catalog.Category{Name: c.Name, Description: c.Description})
		}
		entries = append(entries, e)
	}
	return entries, nil
}
