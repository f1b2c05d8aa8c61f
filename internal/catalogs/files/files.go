// Package files reads the module catalog from a YAML (or JSON) file:
//
//	modules:
//	  - id: chem
//	    display_name: Chemistry 101
//	    canonical_content_url: http://cdn/modules/chem-101/index.html
//
// A bare top-level list of modules is accepted too.
package files

import (
	"bytes"
	"context"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/errors"
)

// Source reads the file on every Fetch.
type Source struct {
	path string
}

// New creates a Source for path.
func New(path string) *Source {
	return &Source{path: path}
}

type document struct {
	Modules []catalog.Entry `yaml:"modules"`
}

// Fetch implements catalog.Source.
func (s *Source) Fetch(ctx context.Context) ([]catalog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.WrapIO("read", s.path, err)
	}
	return Decode(data)
}

// Decode parses a catalog document.
func Decode(data []byte) ([]catalog.Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' || bytes.HasPrefix(trimmed, []byte("- ")) {
		var list []catalog.Entry
		if err := yaml.Unmarshal(trimmed, &list); err != nil {
			return nil, errors.WrapResource("decode", "catalog", "", err)
		}
		return list, nil
	}

	var doc document
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, errors.WrapResource("decode", "catalog", "", err)
	}
	return doc.Modules, nil
}
