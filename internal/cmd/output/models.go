package output

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/gaze/pkg/accesslog"
	"github.com/agentstation/gaze/pkg/alerts"
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/engine"
	"github.com/agentstation/gaze/pkg/policies"
)

// Write renders raw with the formatter for format. Table formats print the
// pre-built table, when one is given, instead of reflecting over raw.
func Write(w io.Writer, format Format, raw any, table func(wide bool) Data) error {
	formatter := NewFormatter(format)
	if format.Tabular() && table != nil {
		return formatter.Format(w, table(format == FormatWide))
	}
	return formatter.Format(w, raw)
}

// SessionsTable renders the sessions of a snapshot.
func SessionsTable(snap engine.Snapshot, wide bool) Data {
	headers := []string{"Client", "Module", "Elapsed", "Limit", "Status"}
	align := []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft}
	if wide {
		headers = append(headers, "Raw ID", "Policy", "Started", "Last Seen")
		align = append(align, AlignLeft, AlignLeft, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(snap.Sessions))
	for _, s := range snap.Sessions {
		limit := "-"
		if s.LimitMinutes > 0 {
			limit = strconv.Itoa(s.LimitMinutes) + "m"
		}
		status := "ok"
		if s.OverLimit {
			status = "over limit"
		}
		row := []string{s.ClientAddress, s.DisplayName, s.Elapsed, limit, status}
		if wide {
			policy := s.PolicyKey
			if policy == "" {
				policy = "-"
			}
			row = append(row,
				s.RawModuleID,
				policy,
				clock(s.StartedAt),
				clock(s.LastActivityAt),
			)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// StatsTable renders the derived counters as key/value pairs.
func StatsTable(stats engine.Stats) Data {
	return Data{
		Headers: []string{"Stat", "Value"},
		Rows: [][]string{
			{"Active sessions", strconv.Itoa(stats.ActiveSessions)},
			{"Unique clients", strconv.Itoa(stats.UniqueClients)},
			{"Active modules", strconv.Itoa(stats.ActiveModules)},
			{"Active policies", strconv.Itoa(stats.ActivePolicies)},
			{"Catalog modules", strconv.Itoa(stats.TotalModules)},
			{"Categories", strconv.Itoa(stats.TotalCategories)},
			{"Alerts", strconv.Itoa(stats.TotalAlerts)},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// AlertsTable renders alerts, newest first as given.
func AlertsTable(list []alerts.Alert, wide bool) Data {
	headers := []string{"Time", "Message"}
	if wide {
		headers = append(headers, "Client", "Module", "Limit", "ID")
	}

	rows := make([][]string, 0, len(list))
	for _, a := range list {
		row := []string{clock(a.CreatedAt), a.Message}
		if wide {
			row = append(row, a.ClientAddress, a.RawModuleID, strconv.Itoa(a.LimitMinutes)+"m", a.ID)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// PoliciesTable renders the timer policies.
func PoliciesTable(list []policies.Policy) Data {
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		state := "paused"
		if p.Enabled {
			state = "active"
		}
		rows = append(rows, []string{p.ModuleKey, strconv.Itoa(p.LimitMinutes) + "m", state})
	}
	return Data{
		Headers:         []string{"Module", "Limit", "State"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignLeft},
	}
}

// CatalogTable renders catalog entries with their derived raw module ids.
func CatalogTable(entries []catalog.Entry, rootMarker string, wide bool) Data {
	headers := []string{"Name", "Raw ID", "Categories"}
	if wide {
		headers = append(headers, "Language", "URL", "Description")
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		names := make([]string, 0, len(e.Categories))
		for _, c := range e.Categories {
			names = append(names, c.Name)
		}
		row := []string{e.DisplayName, e.RawModuleIDWith(rootMarker), strings.Join(names, ", ")}
		if wide {
			row = append(row, e.Language, e.CanonicalContentURL, truncate(e.Description, 60))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// EventsTable renders parsed access events.
func EventsTable(events []accesslog.Event) Data {
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{ev.ClientAddress, ev.RawModuleID})
	}
	return Data{Headers: []string{"Client", "Raw ID"}, Rows: rows}
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.TimeOnly)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
