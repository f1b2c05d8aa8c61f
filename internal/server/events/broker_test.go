package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/gaze/pkg/constants"
	"github.com/agentstation/gaze/pkg/engine"
)

// mockSubscriber records delivered events.
type mockSubscriber struct {
	events []Event
	mu     sync.Mutex
	closed bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{events: make([]Event, 0)}
}

func (m *mockSubscriber) Send(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockSubscriber) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func (m *mockSubscriber) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func TestBroker_BasicOperation(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go b.Run(ctx)

	sub := newMockSubscriber()
	b.Subscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 1 })

	b.Publish(AlertRaised, map[string]any{"message": "IP 10.0.0.7 has exceeded 1 minutes"})
	waitFor(t, func() bool { return sub.EventCount() == 1 })

	if got := b.EventsPublished(); got != 1 {
		t.Errorf("expected 1 published event, got %d", got)
	}
}

func TestBroker_PublishEventKeepsTimestamp(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	sub := newMockSubscriber()
	b.Subscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 1 })

	at := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	b.PublishEvent(FromEngine(engine.Event{Type: engine.EventSessionStarted, Timestamp: at}))
	waitFor(t, func() bool { return sub.EventCount() == 1 })

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.events[0].Type != SessionStarted {
		t.Errorf("expected %s, got %s", SessionStarted, sub.events[0].Type)
	}
	if !sub.events[0].Timestamp.Equal(at) {
		t.Errorf("timestamp changed: %v", sub.events[0].Timestamp)
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	sub := newMockSubscriber()
	b.Subscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 1 })

	b.Unsubscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 0 })
	if !sub.Closed() {
		t.Error("unsubscribed subscriber was not closed")
	}
}

func TestBroker_Shutdown(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	sub1 := newMockSubscriber()
	sub2 := newMockSubscriber()
	b.Subscribe(sub1)
	b.Subscribe(sub2)
	waitFor(t, func() bool { return b.SubscriberCount() == 2 })

	cancel()
	waitFor(t, func() bool { return b.SubscriberCount() == 0 })

	if !sub1.Closed() || !sub2.Closed() {
		t.Error("subscribers not closed on shutdown")
	}
}

// Subscribe must not block before Run starts; the server wires its
// transports before starting the broker.
func TestBroker_SubscribeBeforeRun(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	const numSubscribers = 5
	done := make(chan struct{})
	go func() {
		for i := 0; i < numSubscribers; i++ {
			b.Subscribe(newMockSubscriber())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe blocked before Run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go b.Run(ctx)

	waitFor(t, func() bool { return b.SubscriberCount() == numSubscribers })
}

func TestBroker_DropsWhenQueueFull(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	for i := 0; i < constants.EventBufferSize+3; i++ {
		b.Publish(SessionsTick, nil)
	}

	if got := b.EventsDropped(); got != 3 {
		t.Errorf("expected 3 dropped events, got %d", got)
	}
	if got := b.QueueDepth(); got != constants.EventBufferSize {
		t.Errorf("expected full queue, got depth %d", got)
	}
}
