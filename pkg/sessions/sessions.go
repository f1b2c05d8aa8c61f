// Package sessions tracks, per client address, which module the client is on
// and since when.
//
// A Table is not synchronized. Its owner (the engine) serializes every call.
package sessions

import (
	"sort"
	"time"
)

// Session is the live record of one client's current module.
// Elapsed time is derived from StartedAt and never stored.
type Session struct {
	ClientAddress  string    `json:"client_address"`
	RawModuleID    string    `json:"raw_module_id"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Elapsed returns how long the client has been on its current module at now.
// Clock skew never yields a negative value.
func (s Session) Elapsed(now time.Time) time.Duration {
	d := now.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedSeconds returns Elapsed truncated to whole seconds.
func (s Session) ElapsedSeconds(now time.Time) int64 {
	return int64(s.Elapsed(now) / time.Second)
}

// IdleFor returns how long the client has been silent at now.
func (s Session) IdleFor(now time.Time) time.Duration {
	d := now.Sub(s.LastActivityAt)
	if d < 0 {
		return 0
	}
	return d
}

// Change describes what RecordAccess did.
type Change int

const (
	// Touched means same client, same module; only activity was refreshed.
	Touched Change = iota
	// Created means the client had no session.
	Created
	// Switched means the client moved to another module and its timer restarted.
	Switched
)

func (c Change) String() string {
	switch c {
	case Created:
		return "created"
	case Switched:
		return "switched"
	default:
		return "touched"
	}
}

// Update is the result of RecordAccess.
type Update struct {
	Session  Session
	Change   Change
	Previous string // module before a switch
}

// View is a session projected at a point in time.
type View struct {
	Session
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

// Table holds at most one session per client address.
type Table struct {
	sessions map[string]*Session

	day  string
	seen map[string]struct{}
}

// New returns an empty table.
func New() *Table {
	return &Table{
		sessions: make(map[string]*Session),
		seen:     make(map[string]struct{}),
	}
}

// RecordAccess creates or updates the session for client. A module change
// restarts the timer; every call refreshes LastActivityAt.
func (t *Table) RecordAccess(client, rawModuleID string, now time.Time) Update {
	t.markSeen(client, now)

	s, ok := t.sessions[client]
	if !ok {
		s = &Session{
			ClientAddress:  client,
			RawModuleID:    rawModuleID,
			StartedAt:      now,
			LastActivityAt: now,
		}
		t.sessions[client] = s
		return Update{Session: *s, Change: Created}
	}

	if s.RawModuleID != rawModuleID {
		prev := s.RawModuleID
		s.RawModuleID = rawModuleID
		s.StartedAt = now
		s.LastActivityAt = now
		return Update{Session: *s, Change: Switched, Previous: prev}
	}

	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
	return Update{Session: *s, Change: Touched}
}

// Tick projects every session at now, ordered by client address.
func (t *Table) Tick(now time.Time) []View {
	snap := t.Snapshot()
	views := make([]View, len(snap))
	for i, s := range snap {
		views[i] = View{Session: s, ElapsedSeconds: s.ElapsedSeconds(now)}
	}
	return views
}

// Prune removes and returns sessions silent for longer than staleAfter.
func (t *Table) Prune(now time.Time, staleAfter time.Duration) []Session {
	var removed []Session
	for client, s := range t.sessions {
		if s.IdleFor(now) > staleAfter {
			removed = append(removed, *s)
			delete(t.sessions, client)
		}
	}
	sortByClient(removed)
	return removed
}

// Get returns the session for client.
func (t *Table) Get(client string) (Session, bool) {
	s, ok := t.sessions[client]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Len returns the number of sessions.
func (t *Table) Len() int {
	return len(t.sessions)
}

// Snapshot returns a copy of all sessions ordered by client address.
func (t *Table) Snapshot() []Session {
	out := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, *s)
	}
	sortByClient(out)
	return out
}

// ActiveModules returns the number of distinct modules with a session.
func (t *Table) ActiveModules() int {
	mods := make(map[string]struct{}, len(t.sessions))
	for _, s := range t.sessions {
		mods[s.RawModuleID] = struct{}{}
	}
	return len(mods)
}

// UniqueClients returns the number of distinct clients seen on now's
// calendar day, including clients whose sessions were already pruned.
func (t *Table) UniqueClients(now time.Time) int {
	if t.day != dayOf(now) {
		return 0
	}
	return len(t.seen)
}

func (t *Table) markSeen(client string, now time.Time) {
	if d := dayOf(now); d != t.day {
		t.day = d
		t.seen = make(map[string]struct{})
	}
	t.seen[client] = struct{}{}
}

func dayOf(t time.Time) string {
	return t.Format(time.DateOnly)
}

func sortByClient(s []Session) {
	sort.Slice(s, func(i, j int) bool {
		return s[i].ClientAddress < s[j].ClientAddress
	})
}
