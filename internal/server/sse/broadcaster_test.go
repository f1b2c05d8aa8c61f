package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func waitForClients(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", n, b.ClientCount())
}

// TestBroadcaster_BasicOperation tests basic broadcaster operations.
func TestBroadcaster_BasicOperation(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go b.Run(ctx)

	client := make(chan Event, 8)
	b.newClients <- client
	waitForClients(t, b, 1)

	b.Broadcast(Event{Event: "alert.raised", Data: map[string]any{"client": "10.0.0.7"}})
	b.Broadcast(Event{Event: "alert.raised", ID: "custom"})

	select {
	case received := <-client:
		if received.Event != "alert.raised" {
			t.Errorf("expected alert.raised, got %s", received.Event)
		}
		if received.ID != "1" {
			t.Errorf("expected sequence id 1, got %q", received.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive event")
	}

	select {
	case received := <-client:
		if received.ID != "custom" {
			t.Errorf("explicit id overwritten: %q", received.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive second event")
	}
}

// TestBroadcaster_Shutdown tests graceful shutdown.
func TestBroadcaster_Shutdown(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	client1 := make(chan Event, 8)
	client2 := make(chan Event, 8)
	b.newClients <- client1
	b.newClients <- client2
	waitForClients(t, b, 2)

	cancel()
	waitForClients(t, b, 0)

	if _, ok := <-client1; ok {
		t.Error("client channel not closed on shutdown")
	}
}

// TestBroadcaster_ServeHTTP reads the stream the way a browser EventSource would.
func TestBroadcaster_ServeHTTP(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readFrame := func() string {
		t.Helper()
		var frame strings.Builder
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("reading stream: %v", err)
			}
			if line == "\n" {
				return frame.String()
			}
			frame.WriteString(line)
		}
	}

	if first := readFrame(); !strings.Contains(first, "event: connected") {
		t.Fatalf("expected connected event, got %q", first)
	}

	waitForClients(t, b, 1)
	b.Broadcast(Event{Event: "session.started", Data: map[string]string{"client_address": "10.0.0.7"}})

	frame := readFrame()
	for _, want := range []string{"event: session.started", "id: 1", `data: {"client_address":"10.0.0.7"}`} {
		if !strings.Contains(frame, want) {
			t.Errorf("frame %q missing %q", frame, want)
		}
	}
}
