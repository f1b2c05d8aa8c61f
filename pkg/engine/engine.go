// Package engine is the session and timer reconciliation engine.
//
// An Engine owns the session table, the policy set, the catalog index and the
// alert log behind a single mutex. Every operation takes an explicit time so
// tests can drive it without real timers; Run drives it from a Clock with
// three independent tickers (duration refresh, reaper, evaluator).
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/gaze/pkg/accesslog"
	"github.com/agentstation/gaze/pkg/alerts"
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/logging"
	"github.com/agentstation/gaze/pkg/policies"
	"github.com/agentstation/gaze/pkg/sessions"
)

// Engine is safe for concurrent use.
type Engine struct {
	cfg    Config
	parser *accesslog.Parser
	clock  Clock
	logger *zerolog.Logger

	mu       sync.Mutex
	table    *sessions.Table
	policies *policies.Set
	index    *catalog.Index
	alerts   *alerts.Log

	lmu       sync.RWMutex
	listeners []Listener

	linesSeen    atomic.Uint64
	linesMatched atomic.Uint64
	passes       atomic.Uint64
}

// New creates an engine with an empty catalog and the seeded policies.
func New(cfg Config) (*Engine, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	set, err := policies.NewSet(cfg.seed()...)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Engine{
		cfg:      cfg,
		parser:   accesslog.NewParser(cfg.InfoMarker, cfg.RootMarker),
		clock:    cfg.Clock,
		logger:   logger,
		table:    sessions.New(),
		policies: set,
		index:    catalog.NewIndex(nil, cfg.RootMarker),
		alerts:   alerts.NewLog(),
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Now returns the engine clock's time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// Parser returns the parser used by Ingest.
func (e *Engine) Parser() *accesslog.Parser {
	return e.parser
}

// Ingest parses line and records it at the clock's current time.
func (e *Engine) Ingest(line string) bool {
	return e.IngestAt(line, e.clock.Now())
}

// IngestAt parses line and records it at now. Lines that are not module
// accesses are skipped and reported as false.
func (e *Engine) IngestAt(line string, now time.Time) bool {
	e.linesSeen.Add(1)

	ev, ok := e.parser.Parse(line)
	if !ok {
		return false
	}
	e.linesMatched.Add(1)
	e.RecordAccess(ev, now)
	return true
}

// RecordAccess creates or updates the session for ev.ClientAddress.
func (e *Engine) RecordAccess(ev accesslog.Event, now time.Time) sessions.Update {
	e.mu.Lock()
	u := e.table.RecordAccess(ev.ClientAddress, ev.RawModuleID, now)
	name := e.index.DisplayNameOf(ev.RawModuleID)
	e.mu.Unlock()

	var typ EventType
	switch u.Change {
	case sessions.Created:
		typ = EventSessionStarted
	case sessions.Switched:
		typ = EventSessionSwitched
	default:
		return u
	}

	e.logger.Debug().
		Str("client", ev.ClientAddress).
		Str("module", ev.RawModuleID).
		Str("change", u.Change.String()).
		Msg("session updated")

	e.emit(Event{Type: typ, Timestamp: now, Data: SessionChange{
		ClientAddress:  u.Session.ClientAddress,
		RawModuleID:    u.Session.RawModuleID,
		DisplayName:    name,
		PreviousModule: u.Previous,
		StartedAt:      u.Session.StartedAt,
		LastActivityAt: u.Session.LastActivityAt,
	}})
	return u
}

// Tick projects every session at now and publishes the projection.
func (e *Engine) Tick(now time.Time) []SessionView {
	e.mu.Lock()
	views := e.viewsLocked(now)
	e.mu.Unlock()

	e.emit(Event{Type: EventSessionsTick, Timestamp: now, Data: views})
	return views
}

// Reap removes sessions idle for longer than the staleness window.
// Their elapsed time is discarded; no alert is raised.
func (e *Engine) Reap(now time.Time) []sessions.Session {
	e.mu.Lock()
	removed := e.table.Prune(now, e.cfg.StaleAfter)
	names := make([]string, len(removed))
	for i, s := range removed {
		names[i] = e.index.DisplayNameOf(s.RawModuleID)
	}
	e.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}

	events := make([]Event, 0, len(removed))
	for i, s := range removed {
		e.logger.Debug().Str("client", s.ClientAddress).Str("module", s.RawModuleID).Msg("session expired")
		events = append(events, Event{Type: EventSessionExpired, Timestamp: now, Data: SessionChange{
			ClientAddress:  s.ClientAddress,
			RawModuleID:    s.RawModuleID,
			DisplayName:    names[i],
			StartedAt:      s.StartedAt,
			LastActivityAt: s.LastActivityAt,
		}})
	}
	e.emit(events...)
	return removed
}

// SetCatalog swaps in a rebuilt catalog index. A nil index clears the catalog.
func (e *Engine) SetCatalog(ix *catalog.Index) {
	if ix == nil {
		ix = catalog.NewIndex(nil, e.cfg.RootMarker)
	}
	e.mu.Lock()
	e.index = ix
	e.mu.Unlock()

	e.emit(Event{Type: EventCatalogUpdated, Timestamp: e.clock.Now(), Data: CatalogChange{
		Modules:    ix.Len(),
		Categories: ix.CategoryCount(),
	}})
}

// Catalog returns the current catalog index. Indexes are immutable.
func (e *Engine) Catalog() *catalog.Index {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// Alerts returns the full alert history, oldest first.
func (e *Engine) Alerts() []alerts.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alerts.All()
}

// RecentAlerts returns the last n alerts, oldest first.
func (e *Engine) RecentAlerts(n int) []alerts.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alerts.Recent(n)
}

// Counters are monotonic engine counters for metrics.
type Counters struct {
	LinesSeen      uint64 `json:"lines_seen"`
	LinesMatched   uint64 `json:"lines_matched"`
	EvaluatePasses uint64 `json:"evaluate_passes"`
	Alerts         int    `json:"alerts"`
}

// Counters returns the current counters.
func (e *Engine) Counters() Counters {
	e.mu.Lock()
	n := e.alerts.Len()
	e.mu.Unlock()
	return Counters{
		LinesSeen:      e.linesSeen.Load(),
		LinesMatched:   e.linesMatched.Load(),
		EvaluatePasses: e.passes.Load(),
		Alerts:         n,
	}
}
