package parse

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentstation/gaze/internal/cmd/application"
	"github.com/agentstation/gaze/pkg/accesslog"
)

const logLines = `2025-05-12T09:14:03+0000 oc4d node[812]: info: ::ffff:10.0.0.5 - "GET /modules/chem-101/index.html HTTP/1.1" 200
2025-05-12T09:14:04+0000 oc4d node[812]: info: 10.0.0.6 - "GET /static/app.js HTTP/1.1" 200
2025-05-12T09:14:05+0000 oc4d node[812]: info: 10.0.0.7 - "GET /modules/hist-200/ch1.html HTTP/1.1" 200
`

func TestParseStdinJSON(t *testing.T) {
	mock := &application.Mock{OutputFormatFunc: func() string { return "json" }}
	cmd := NewCommand(mock, accesslog.Default())

	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(logLines))
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var events []accesslog.Event
	if err := json.Unmarshal(out.Bytes(), &events); err != nil {
		t.Fatalf("invalid json %q: %v", out.String(), err)
	}
	want := []accesslog.Event{
		{ClientAddress: "10.0.0.5", RawModuleID: "chem-101"},
		{ClientAddress: "10.0.0.7", RawModuleID: "hist-200"},
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestParseFileTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	if err := os.WriteFile(path, []byte(logLines), 0o600); err != nil {
		t.Fatal(err)
	}

	mock := &application.Mock{}
	cmd := NewCommand(mock, accesslog.NewParser("info:", "/modules/"))

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if !strings.Contains(out.String(), "hist-200") {
		t.Errorf("table missing event:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "2 events from 3 lines") {
		t.Errorf("unexpected summary %q", errOut.String())
	}
}

func TestParseMissingFile(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, accesslog.Default())
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.log")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
