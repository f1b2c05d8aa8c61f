// Package accesslog turns raw CDN access log lines into access events.
//
// A line is accepted when it carries an IPv4 client address after the log's
// info marker and a quoted GET request whose path contains the module root
// marker. Everything else is skipped without error: the feed is expected to
// contain noise.
//
//	ev, ok := accesslog.Parse(`info: ::ffff:10.0.0.5 - "GET /modules/chem-101/index.html HTTP/1.1" 200`)
//	// ev.ClientAddress == "10.0.0.5", ev.RawModuleID == "chem-101"
package accesslog

import (
	"regexp"
	"strings"

	"github.com/agentstation/gaze/pkg/constants"
)

// Event is one attributed access. It is never stored; the session table
// consumes it immediately.
type Event struct {
	ClientAddress string `json:"client_address" yaml:"client_address"`
	RawModuleID   string `json:"raw_module_id" yaml:"raw_module_id"`
}

var getRequest = regexp.MustCompile(`"GET\s+([^\s"]+)`)

// Parser extracts events using a configurable pair of markers.
// A Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	infoMarker string
	rootMarker string
	address    *regexp.Regexp
}

// NewParser creates a parser. Empty markers fall back to the defaults.
func NewParser(infoMarker, rootMarker string) *Parser {
	if infoMarker == "" {
		infoMarker = constants.InfoMarker
	}
	if rootMarker == "" {
		rootMarker = constants.RootMarker
	}
	return &Parser{
		infoMarker: infoMarker,
		rootMarker: rootMarker,
		address:    regexp.MustCompile(regexp.QuoteMeta(infoMarker) + `\s*(?:::ffff:)?(\d{1,3}(?:\.\d{1,3}){3})\b`),
	}
}

var defaultParser = NewParser(constants.InfoMarker, constants.RootMarker)

// Default returns the parser for the standard service log format.
func Default() *Parser {
	return defaultParser
}

// Parse parses line with the default markers.
func Parse(line string) (Event, bool) {
	return defaultParser.Parse(line)
}

// Contains reports whether line mentions the default root marker at all.
func Contains(line string) bool {
	return defaultParser.Contains(line)
}

// RootMarker returns the path prefix that introduces a module id.
func (p *Parser) RootMarker() string {
	return p.rootMarker
}

// Contains is a cheap pre-filter for feeds: lines without the root marker
// can never parse.
func (p *Parser) Contains(line string) bool {
	return strings.Contains(line, p.rootMarker)
}

// Parse returns the event in line, or false when the line is not an
// attributable module access.
func (p *Parser) Parse(line string) (Event, bool) {
	if !p.Contains(line) {
		return Event{}, false
	}

	addr := p.address.FindStringSubmatch(line)
	if addr == nil {
		return Event{}, false
	}

	req := getRequest.FindStringSubmatch(line)
	if req == nil {
		return Event{}, false
	}

	module := ModuleSegment(req[1], p.rootMarker)
	if module == "" {
		return Event{}, false
	}

	return Event{ClientAddress: addr[1], RawModuleID: module}, true
}

// ModuleSegment returns the path segment immediately after rootMarker in s,
// stopping at the next '/', '?' or '#'. It returns "" when the marker is
// absent or followed by nothing. The same rule derives a catalog entry's raw
// id from its content URL.
func ModuleSegment(s, rootMarker string) string {
	if rootMarker == "" {
		return ""
	}
	_, rest, ok := strings.Cut(s, rootMarker)
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
