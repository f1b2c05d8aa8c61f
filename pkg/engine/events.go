package engine

import (
	"time"

	"github.com/agentstation/gaze/pkg/alerts"
	"github.com/agentstation/gaze/pkg/policies"
)

// EventType names a state change published by the engine.
type EventType string

// Engine event types.
const (
	EventSessionStarted  EventType = "session.started"
	EventSessionSwitched EventType = "session.switched"
	EventSessionExpired  EventType = "session.expired"
	EventSessionsTick    EventType = "sessions.tick"
	EventAlertRaised     EventType = "alert.raised"
	EventPolicyChanged   EventType = "policy.changed"
	EventCatalogUpdated  EventType = "catalog.updated"
)

// Event is delivered to listeners after the state lock is released.
//
// Data holds one of SessionChange, []SessionView, alerts.Alert,
// PolicyChange or CatalogChange depending on Type.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// SessionChange describes a started, switched or expired session.
type SessionChange struct {
	ClientAddress  string    `json:"client_address"`
	RawModuleID    string    `json:"raw_module_id"`
	DisplayName    string    `json:"display_name"`
	PreviousModule string    `json:"previous_module,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// PolicyAction names a policy command.
type PolicyAction string

// Policy actions.
const (
	PolicyPut      PolicyAction = "put"
	PolicyEnabled  PolicyAction = "enabled"
	PolicyDisabled PolicyAction = "disabled"
	PolicyRemoved  PolicyAction = "removed"
)

// PolicyChange describes an applied policy command.
type PolicyChange struct {
	Action PolicyAction    `json:"action"`
	Policy policies.Policy `json:"policy"`
}

// CatalogChange describes a swapped catalog index.
type CatalogChange struct {
	Modules    int `json:"modules"`
	Categories int `json:"categories"`
}

// Listener receives engine events. It runs on the goroutine that caused the
// change and must not call back into a blocking engine method for long.
type Listener func(Event)

// Subscribe registers fn for every subsequent event.
func (e *Engine) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	e.lmu.Lock()
	defer e.lmu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	e.lmu.RLock()
	ls := make([]Listener, len(e.listeners))
	copy(ls, e.listeners)
	e.lmu.RUnlock()

	for _, ev := range events {
		for _, fn := range ls {
			fn(ev)
		}
	}
}

func alertEvent(a alerts.Alert) Event {
	return Event{Type: EventAlertRaised, Timestamp: a.CreatedAt, Data: a}
}
