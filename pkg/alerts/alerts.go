// Package alerts is the append-only log of time-limit violations.
// Alerts are deduplicated by exact message equality.
package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Alert is one recorded violation.
type Alert struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
	ClientAddress string    `json:"client_address,omitempty"`
	RawModuleID   string    `json:"raw_module_id,omitempty"`
	DisplayName   string    `json:"display_name,omitempty"`
	LimitMinutes  int       `json:"limit_minutes,omitempty"`
}

// Message formats the text of a violation alert.
func Message(client string, limitMinutes int, displayName string) string {
	return fmt.Sprintf("IP %s has exceeded %d minutes on module %q", client, limitMinutes, displayName)
}

// Log keeps every alert in arrival order. It is not synchronized.
type Log struct {
	alerts []Alert
	seen   map[string]struct{}
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{seen: make(map[string]struct{})}
}

// Append records a unless an alert with the same message exists. A missing ID
// is filled in. The stored alert and whether it was added are returned.
func (l *Log) Append(a Alert) (Alert, bool) {
	if _, dup := l.seen[a.Message]; dup {
		return Alert{}, false
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	l.seen[a.Message] = struct{}{}
	l.alerts = append(l.alerts, a)
	return a, true
}

// Contains reports whether message was already recorded.
func (l *Log) Contains(message string) bool {
	_, ok := l.seen[message]
	return ok
}

// All returns every alert, oldest first.
func (l *Log) All() []Alert {
	out := make([]Alert, len(l.alerts))
	copy(out, l.alerts)
	return out
}

// Recent returns the last n alerts, oldest first. n <= 0 returns none.
func (l *Log) Recent(n int) []Alert {
	if n <= 0 {
		return []Alert{}
	}
	if n > len(l.alerts) {
		n = len(l.alerts)
	}
	out := make([]Alert, n)
	copy(out, l.alerts[len(l.alerts)-n:])
	return out
}

// Len returns the number of alerts.
func (l *Log) Len() int {
	return len(l.alerts)
}
