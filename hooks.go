package gaze

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/gaze/pkg/alerts"
	"github.com/agentstation/gaze/pkg/engine"
)

// Event types published by the client in addition to the engine's own.
const (
	EventFeedStarted engine.EventType = "feed.started"
	EventFeedStopped engine.EventType = "feed.stopped"
)

// FeedStatus is the payload of feed.started and feed.stopped events.
type FeedStatus struct {
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

// Hook function types for monitor events
type (
	// AlertHook is called once per new violation alert.
	AlertHook func(alerts.Alert)

	// SessionHook is called when a session starts, switches module or expires.
	SessionHook func(engine.SessionChange)

	// TickHook is called with the refreshed session projection.
	TickHook func([]engine.SessionView)

	// CatalogHook is called after a catalog index was swapped in.
	CatalogHook func(engine.CatalogChange)

	// PolicyHook is called after a policy command was applied.
	PolicyHook func(engine.PolicyChange)

	// FeedHook is called when the feed starts or stops.
	FeedHook func(FeedStatus)

	// EventHook receives every event, engine and feed alike.
	EventHook func(engine.Event)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnAlert(AlertHook)
	OnSessionStarted(SessionHook)
	OnSessionSwitched(SessionHook)
	OnSessionExpired(SessionHook)
	OnTick(TickHook)
	OnCatalogUpdated(CatalogHook)
	OnPolicyChanged(PolicyHook)
	OnFeedStarted(FeedHook)
	OnFeedStopped(FeedHook)
	OnEvent(EventHook)
}

// hooks manages event callbacks
type hooks struct {
	mu                sync.RWMutex
	onAlert           []AlertHook
	onSessionStarted  []SessionHook
	onSessionSwitched []SessionHook
	onSessionExpired  []SessionHook
	onTick            []TickHook
	onCatalogUpdated  []CatalogHook
	onPolicyChanged   []PolicyHook
	onFeedStarted     []FeedHook
	onFeedStopped     []FeedHook
	onEvent           []EventHook

	logger *zerolog.Logger
}

func newHooks(logger *zerolog.Logger) *hooks {
	return &hooks{logger: logger}
}

func (h *hooks) OnAlert(fn AlertHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAlert = append(h.onAlert, fn)
}

func (h *hooks) OnSessionStarted(fn SessionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSessionStarted = append(h.onSessionStarted, fn)
}

func (h *hooks) OnSessionSwitched(fn SessionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSessionSwitched = append(h.onSessionSwitched, fn)
}

func (h *hooks) OnSessionExpired(fn SessionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSessionExpired = append(h.onSessionExpired, fn)
}

func (h *hooks) OnTick(fn TickHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTick = append(h.onTick, fn)
}

func (h *hooks) OnCatalogUpdated(fn CatalogHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCatalogUpdated = append(h.onCatalogUpdated, fn)
}

func (h *hooks) OnPolicyChanged(fn PolicyHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPolicyChanged = append(h.onPolicyChanged, fn)
}

func (h *hooks) OnFeedStarted(fn FeedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFeedStarted = append(h.onFeedStarted, fn)
}

func (h *hooks) OnFeedStopped(fn FeedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFeedStopped = append(h.onFeedStopped, fn)
}

func (h *hooks) OnEvent(fn EventHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEvent = append(h.onEvent, fn)
}

// dispatch routes ev to the typed hooks matching its type and then to every
// generic hook. Payloads of an unexpected type only reach the generic hooks.
// Hooks run without the registry lock held, so a hook may register further
// hooks. A panicking hook is logged and skipped.
func (h *hooks) dispatch(ev engine.Event) {
	var calls []func()

	h.mu.RLock()
	switch data := ev.Data.(type) {
	case alerts.Alert:
		for _, fn := range h.onAlert {
			calls = append(calls, func() { fn(data) })
		}
	case engine.SessionChange:
		var fns []SessionHook
		switch ev.Type {
		case engine.EventSessionStarted:
			fns = h.onSessionStarted
		case engine.EventSessionSwitched:
			fns = h.onSessionSwitched
		case engine.EventSessionExpired:
			fns = h.onSessionExpired
		}
		for _, fn := range fns {
			calls = append(calls, func() { fn(data) })
		}
	case []engine.SessionView:
		for _, fn := range h.onTick {
			calls = append(calls, func() { fn(data) })
		}
	case engine.CatalogChange:
		for _, fn := range h.onCatalogUpdated {
			calls = append(calls, func() { fn(data) })
		}
	case engine.PolicyChange:
		for _, fn := range h.onPolicyChanged {
			calls = append(calls, func() { fn(data) })
		}
	case FeedStatus:
		fns := h.onFeedStarted
		if ev.Type == EventFeedStopped {
			fns = h.onFeedStopped
		}
		for _, fn := range fns {
			calls = append(calls, func() { fn(data) })
		}
	}
	for _, fn := range h.onEvent {
		calls = append(calls, func() { fn(ev) })
	}
	h.mu.RUnlock()

	for _, call := range calls {
		h.safely(ev.Type, call)
	}
}

func (h *hooks) safely(typ engine.EventType, call func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Str("event", string(typ)).
				Interface("panic", r).
				Msg("Hook panicked")
		}
	}()
	call()
}
