package events

// Subscriber is an interface for event consumers.
// Implementations adapt the event stream to a transport (SSE, WebSocket,
// NATS).
type Subscriber interface {
	// Send delivers an event to the subscriber. It must not block for long:
	// the broker calls it on its own goroutine per event.
	Send(Event) error

	// Close cleanly shuts down the subscriber.
	Close() error
}
