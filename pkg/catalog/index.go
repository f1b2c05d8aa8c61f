package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/agentstation/gaze/pkg/constants"
)

// Index is an immutable lookup over a catalog snapshot. It is rebuilt, not
// mutated, when the catalog is refetched. A nil *Index behaves as empty.
type Index struct {
	rootMarker string
	entries    []Entry
	byRaw      map[string]Entry
	byName     map[string]Entry
	categories int
}

// Empty returns an index with no entries.
func Empty() *Index {
	return NewIndex(nil, constants.RootMarker)
}

// NewIndex builds an index keyed by each entry's derived raw id. When two
// entries derive the same raw id, or share a display name, the first one in
// entries wins. Entries without a derivable raw id are kept for listing and
// search but cannot be looked up by raw id.
func NewIndex(entries []Entry, rootMarker string) *Index {
	if rootMarker == "" {
		rootMarker = constants.RootMarker
	}
	ix := &Index{
		rootMarker: rootMarker,
		entries:    make([]Entry, 0, len(entries)),
		byRaw:      make(map[string]Entry, len(entries)),
		byName:     make(map[string]Entry, len(entries)),
	}

	cats := make(map[string]struct{})
	for _, e := range entries {
		ix.entries = append(ix.entries, e)
		if raw := e.RawModuleIDWith(rootMarker); raw != "" {
			if _, dup := ix.byRaw[raw]; !dup {
				ix.byRaw[raw] = e
			}
		}
		if e.DisplayName != "" {
			if _, dup := ix.byName[e.DisplayName]; !dup {
				ix.byName[e.DisplayName] = e
			}
		}
		for _, c := range e.Categories {
			cats[c.Name] = struct{}{}
		}
	}
	ix.categories = len(cats)

	sort.SliceStable(ix.entries, func(i, j int) bool {
		return ix.entries[i].DisplayName < ix.entries[j].DisplayName
	})
	return ix
}

// RootMarker returns the marker used to derive raw ids.
func (ix *Index) RootMarker() string {
	if ix == nil {
		return constants.RootMarker
	}
	return ix.rootMarker
}

// RawIDOf derives e's raw id with the index's root marker.
func (ix *Index) RawIDOf(e Entry) string {
	return e.RawModuleIDWith(ix.RootMarker())
}

// Lookup returns the entry whose content URL derives raw.
func (ix *Index) Lookup(raw string) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	e, ok := ix.byRaw[raw]
	return e, ok
}

// DisplayNameOf returns the display name for raw, or raw itself when the
// catalog has no match. The result is never empty for a non-empty raw.
func (ix *Index) DisplayNameOf(raw string) string {
	if e, ok := ix.Lookup(raw); ok && e.DisplayName != "" {
		return e.DisplayName
	}
	return raw
}

// ByDisplayName returns the entry with the given display name. An exact match
// is preferred; otherwise names are compared ignoring case and surrounding
// whitespace.
func (ix *Index) ByDisplayName(name string) (Entry, bool) {
	if ix == nil || name == "" {
		return Entry{}, false
	}
	if e, ok := ix.byName[name]; ok {
		return e, true
	}
	want := strings.TrimSpace(name)
	for _, e := range ix.entries {
		if strings.EqualFold(strings.TrimSpace(e.DisplayName), want) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns all entries ordered by display name.
func (ix *Index) Entries() []Entry {
	if ix == nil {
		return nil
	}
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// CategoryCount returns the number of distinct category names.
func (ix *Index) CategoryCount() int {
	if ix == nil {
		return 0
	}
	return ix.categories
}

// Search returns entries whose display name or description contains term,
// compared with Unicode case folding. An empty term returns every entry.
func (ix *Index) Search(term string) []Entry {
	term = strings.TrimSpace(term)
	if term == "" {
		return ix.Entries()
	}
	if ix == nil {
		return nil
	}

	fold := cases.Fold()
	needle := fold.String(term)

	var out []Entry
	for _, e := range ix.entries {
		if strings.Contains(fold.String(e.DisplayName), needle) ||
			strings.Contains(fold.String(e.Description), needle) {
			out = append(out, e)
		}
	}
	return out
}
