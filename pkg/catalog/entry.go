// Package catalog holds the module catalog as seen by the engine: entries
// fetched from an external store and an index that maps the raw module id
// found in request paths to the human-readable entry.
package catalog

import (
	"context"

	"github.com/agentstation/gaze/pkg/accesslog"
	"github.com/agentstation/gaze/pkg/constants"
)

// Category groups catalog entries.
type Category struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Entry is one module in the catalog. The raw module id is not stored; it is
// derived from CanonicalContentURL.
type Entry struct {
	ID                  string     `json:"id" yaml:"id"`
	DisplayName         string     `json:"display_name" yaml:"display_name"`
	Description         string     `json:"description,omitempty" yaml:"description,omitempty"`
	CanonicalContentURL string     `json:"canonical_content_url" yaml:"canonical_content_url"`
	Language            string     `json:"language,omitempty" yaml:"language,omitempty"`
	LogoURL             string     `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
	Categories          []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// RawModuleID derives the raw id using the default root marker.
func (e Entry) RawModuleID() string {
	return e.RawModuleIDWith(constants.RootMarker)
}

// RawModuleIDWith derives the raw id using rootMarker.
func (e Entry) RawModuleIDWith(rootMarker string) string {
	return accesslog.ModuleSegment(e.CanonicalContentURL, rootMarker)
}

// Source fetches all enabled catalog entries.
type Source interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Entry, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// Static is a Source that always returns the same entries.
type Static []Entry

// Fetch returns a copy of s.
func (s Static) Fetch(context.Context) ([]Entry, error) {
	out := make([]Entry, len(s))
	copy(out, s)
	return out, nil
}
