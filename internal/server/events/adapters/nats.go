package adapters

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/agentstation/gaze/internal/server/events"
	"github.com/agentstation/gaze/pkg/errors"
)

// Conn is the part of *nats.Conn the NATS subscriber uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

var _ Conn = (*nats.Conn)(nil)

// NATSSubscriber republishes events on NATS subjects named
// "<prefix>.<event type>", e.g. gaze.alert.raised.
type NATSSubscriber struct {
	conn   Conn
	prefix string
	skip   map[events.EventType]bool
}

// NewNATSSubscriber creates a NATS subscriber. The per-second sessions.tick
// projection is not republished unless listed in include.
func NewNATSSubscriber(conn Conn, prefix string, include ...events.EventType) *NATSSubscriber {
	skip := map[events.EventType]bool{events.SessionsTick: true}
	for _, typ := range include {
		delete(skip, typ)
	}
	return &NATSSubscriber{
		conn:   conn,
		prefix: strings.TrimSuffix(prefix, "."),
		skip:   skip,
	}
}

// Connect dials url and wraps the connection in a subscriber.
func Connect(url, prefix string) (*NATSSubscriber, error) {
	nc, err := nats.Connect(url, nats.Name("gaze"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, &errors.APIError{
			Service:    "nats",
			StatusCode: http.StatusServiceUnavailable,
			Endpoint:   url,
			Message:    "connect failed",
			Err:        err,
		}
	}
	return NewNATSSubscriber(nc, prefix), nil
}

// Subject returns the subject an event type is published on.
func (n *NATSSubscriber) Subject(typ events.EventType) string {
	if n.prefix == "" {
		return string(typ)
	}
	return n.prefix + "." + string(typ)
}

// Send publishes the event as JSON.
func (n *NATSSubscriber) Send(event events.Event) error {
	if n.skip[event.Type] {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WrapResource("encode", "event", string(event.Type), err)
	}
	if err := n.conn.Publish(n.Subject(event.Type), data); err != nil {
		return errors.WrapResource("publish", "event", n.Subject(event.Type), err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NATSSubscriber) Close() error {
	return n.conn.Drain()
}
