package engine

import (
	"time"

	"github.com/agentstation/gaze/pkg/resolver"
	"github.com/agentstation/gaze/pkg/sessions"
)

// SessionView is a session projected at a point in time with its resolved
// display name and limit. It is derived on every read.
type SessionView struct {
	ClientAddress  string        `json:"client_address"`
	RawModuleID    string        `json:"raw_module_id"`
	DisplayName    string        `json:"display_name"`
	StartedAt      time.Time     `json:"started_at"`
	LastActivityAt time.Time     `json:"last_activity_at"`
	ElapsedSeconds int64         `json:"elapsed_seconds"`
	Elapsed        string        `json:"elapsed"`
	PolicyKey      string        `json:"policy_key,omitempty"`
	LimitMinutes   int           `json:"limit_minutes,omitempty"`
	Tier           resolver.Tier `json:"tier,omitempty"`
	OverLimit      bool          `json:"over_limit"`
}

// Stats are derived counters over the current state.
type Stats struct {
	ActiveSessions  int `json:"active_sessions"`
	UniqueClients   int `json:"unique_clients_today"`
	ActiveModules   int `json:"active_modules"`
	ActivePolicies  int `json:"active_policies"`
	TotalModules    int `json:"total_modules"`
	TotalCategories int `json:"total_categories"`
	TotalAlerts     int `json:"total_alerts"`
}

// Snapshot is a read-only projection of the engine at At.
type Snapshot struct {
	At       time.Time     `json:"at"`
	Sessions []SessionView `json:"sessions"`
	Stats    Stats         `json:"stats"`
}

// Snapshot projects every session and the derived counters at now.
func (e *Engine) Snapshot(now time.Time) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		At:       now,
		Sessions: e.viewsLocked(now),
		Stats:    e.statsLocked(now),
	}
}

// Stats returns the derived counters at now.
func (e *Engine) Stats(now time.Time) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked(now)
}

// Session returns the projection of one client's session.
func (e *Engine) Session(client string, now time.Time) (SessionView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.table.Get(client)
	if !ok {
		return SessionView{}, false
	}
	return e.viewLocked(s, now), true
}

func (e *Engine) viewsLocked(now time.Time) []SessionView {
	snap := e.table.Snapshot()
	views := make([]SessionView, len(snap))
	for i, s := range snap {
		views[i] = e.viewLocked(s, now)
	}
	return views
}

func (e *Engine) viewLocked(s sessions.Session, now time.Time) SessionView {
	elapsed := s.Elapsed(now)
	v := SessionView{
		ClientAddress:  s.ClientAddress,
		RawModuleID:    s.RawModuleID,
		DisplayName:    e.index.DisplayNameOf(s.RawModuleID),
		StartedAt:      s.StartedAt,
		LastActivityAt: s.LastActivityAt,
		ElapsedSeconds: s.ElapsedSeconds(now),
		Elapsed:        sessions.FormatDuration(elapsed),
	}
	if res, ok := resolver.Resolve(s, e.index, e.policies); ok {
		v.PolicyKey = res.Policy.ModuleKey
		v.LimitMinutes = res.Policy.LimitMinutes
		v.Tier = res.Tier
		v.OverLimit = elapsed > res.Policy.Limit()
	}
	return v
}

func (e *Engine) statsLocked(now time.Time) Stats {
	return Stats{
		ActiveSessions:  e.table.Len(),
		UniqueClients:   e.table.UniqueClients(now),
		ActiveModules:   e.table.ActiveModules(),
		ActivePolicies:  e.policies.ActiveCount(),
		TotalModules:    e.index.Len(),
		TotalCategories: e.index.CategoryCount(),
		TotalAlerts:     e.alerts.Len(),
	}
}
