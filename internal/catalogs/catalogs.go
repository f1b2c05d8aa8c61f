// Package catalogs builds the catalog.Source configured for a deployment.
package catalogs

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/gaze/internal/catalogs/files"
	"github.com/agentstation/gaze/internal/catalogs/remote"
	"github.com/agentstation/gaze/internal/catalogs/sqlite"
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/errors"
)

// Kind selects a catalog backend.
type Kind string

// Catalog backends.
const (
	None   Kind = "none"
	SQLite Kind = "sqlite"
	HTTP   Kind = "http"
	Files  Kind = "file"
)

func (k Kind) String() string {
	return string(k)
}

// Config selects and configures a backend.
type Config struct {
	Kind Kind

	// DSN is the SQLite database path or DSN.
	DSN string

	// URL is the remote catalog endpoint returning a JSON module array.
	URL         string
	Token       string
	TokenHeader string
	Timeout     time.Duration

	// Path is a YAML or JSON catalog file.
	Path string
}

// New returns the source described by cfg. Kind none yields an always-empty
// source, so display names degrade to raw module ids.
func New(cfg Config) (catalog.Source, error) {
	switch Kind(strings.ToLower(string(cfg.Kind))) {
	case "", None:
		return catalog.Static(nil), nil
	case SQLite:
		if cfg.DSN == "" {
			return nil, errors.NewConfigError("catalog", "sqlite catalog needs catalog.dsn", nil)
		}
		return sqlite.New(cfg.DSN), nil
	case HTTP:
		if cfg.URL == "" {
			return nil, errors.NewConfigError("catalog", "http catalog needs catalog.url", nil)
		}
		return remote.New(cfg.URL, remote.WithToken(cfg.Token, cfg.TokenHeader), remote.WithTimeout(cfg.Timeout)), nil
	case Files:
		if cfg.Path == "" {
			return nil, errors.NewConfigError("catalog", "file catalog needs catalog.path", nil)
		}
		return files.New(cfg.Path), nil
	default:
		return nil, errors.NewValidationError("catalog.kind", cfg.Kind, "must be one of none, sqlite, http, file")
	}
}

// Fetch is a convenience for one-shot commands.
func Fetch(ctx context.Context, cfg Config) ([]catalog.Entry, error) {
	src, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return src.Fetch(ctx)
}
