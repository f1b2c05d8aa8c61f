package alerts

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/gaze/internal/cmd/application"
	"github.com/agentstation/gaze/internal/server/servertest"
	"github.com/agentstation/gaze/pkg/accesslog"
	"github.com/agentstation/gaze/pkg/constants"
)

func TestAlerts(t *testing.T) {
	base, gz := servertest.New(t)
	mock := &application.Mock{APIURLFunc: func() string { return base }}

	cmd := NewCommand(mock, constants.RecentAlerts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No alerts") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	eng := gz.Engine()
	now := eng.Now()
	for _, client := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		eng.RecordAccess(accesslog.Event{ClientAddress: client, RawModuleID: "chem-101"}, now.Add(-3*time.Minute))
	}
	eng.Evaluate(now)

	cmd = NewCommand(mock, constants.RecentAlerts)
	var out2, errOut bytes.Buffer
	cmd.SetOut(&out2)
	cmd.SetErr(&errOut)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out2.String(), "Chemistry 101"); got != 3 {
		t.Errorf("expected 3 alerts, got %d:\n%s", got, out2.String())
	}
	if !strings.Contains(errOut.String(), "showing 3 of 4 alerts") {
		t.Errorf("unexpected summary %q", errOut.String())
	}
}

func TestAlertsRejectsNegativeLimit(t *testing.T) {
	cmd := NewCommand(&application.Mock{}, constants.RecentAlerts)
	cmd.SetArgs([]string{"--limit", "-1"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error")
	}
}
