// Package events fans monitor events out to the server's live transports.
//
// The gaze client publishes engine and feed events into a Broker, which
// delivers each one to every registered Subscriber (SSE, WebSocket, NATS)
// concurrently.
package events

import (
	"time"

	"github.com/agentstation/gaze"
	"github.com/agentstation/gaze/pkg/engine"
)

// EventType represents the type of monitor event.
type EventType string

// Event types published to live clients.
const (
	// Session events (from the engine).
	SessionStarted  EventType = EventType(engine.EventSessionStarted)
	SessionSwitched EventType = EventType(engine.EventSessionSwitched)
	SessionExpired  EventType = EventType(engine.EventSessionExpired)
	SessionsTick    EventType = EventType(engine.EventSessionsTick)

	// Alert, policy and catalog events (from the engine).
	AlertRaised    EventType = EventType(engine.EventAlertRaised)
	PolicyChanged  EventType = EventType(engine.EventPolicyChanged)
	CatalogUpdated EventType = EventType(engine.EventCatalogUpdated)

	// Feed events (from the client).
	FeedStarted EventType = EventType(gaze.EventFeedStarted)
	FeedStopped EventType = EventType(gaze.EventFeedStopped)

	// Client events (from transport layers).
	ClientConnected EventType = "client.connected"
)

// Event represents a monitor event with type, timestamp, and data.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// FromEngine converts an engine or feed event for publication.
func FromEngine(ev engine.Event) Event {
	return Event{
		Type:      EventType(ev.Type),
		Timestamp: ev.Timestamp,
		Data:      ev.Data,
	}
}
