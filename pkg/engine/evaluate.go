package engine

import (
	"time"

	"github.com/agentstation/gaze/pkg/alerts"
	"github.com/agentstation/gaze/pkg/resolver"
)

// Evaluate compares every session against its resolved limit and appends an
// alert for each violation whose message is not already in the log. Sessions
// without a policy are ignored. The new alerts are returned.
func (e *Engine) Evaluate(now time.Time) []alerts.Alert {
	e.passes.Add(1)

	e.mu.Lock()
	var raised []alerts.Alert
	for _, s := range e.table.Snapshot() {
		res, ok := resolver.Resolve(s, e.index, e.policies)
		if !ok {
			continue
		}
		limit := res.Policy.LimitMinutes
		if s.Elapsed(now) <= res.Policy.Limit() {
			continue
		}

		name := e.index.DisplayNameOf(s.RawModuleID)
		a, added := e.alerts.Append(alerts.Alert{
			Message:       alerts.Message(s.ClientAddress, limit, name),
			CreatedAt:     now,
			ClientAddress: s.ClientAddress,
			RawModuleID:   s.RawModuleID,
			DisplayName:   name,
			LimitMinutes:  limit,
		})
		if added {
			raised = append(raised, a)
		}
	}
	e.mu.Unlock()

	events := make([]Event, 0, len(raised))
	for _, a := range raised {
		e.logger.Warn().
			Str("client", a.ClientAddress).
			Str("module", a.RawModuleID).
			Int("limit_minutes", a.LimitMinutes).
			Msg(a.Message)
		events = append(events, alertEvent(a))
	}
	e.emit(events...)
	return raised
}
