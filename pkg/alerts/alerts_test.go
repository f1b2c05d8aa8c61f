package alerts_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gaze/pkg/alerts"
)

func TestMessage(t *testing.T) {
	assert.Equal(t,
		`IP 10.0.0.5 has exceeded 1 minutes on module "Chemistry 101"`,
		alerts.Message("10.0.0.5", 1, "Chemistry 101"))
}

func TestAppendDeduplicates(t *testing.T) {
	log := alerts.NewLog()
	now := time.Now()
	msg := alerts.Message("10.0.0.5", 1, "chem-101")

	first, ok := log.Append(alerts.Alert{Message: msg, CreatedAt: now})
	require.True(t, ok)
	assert.NotEmpty(t, first.ID)

	_, ok = log.Append(alerts.Alert{Message: msg, CreatedAt: now.Add(5 * time.Second)})
	assert.False(t, ok)

	assert.Equal(t, 1, log.Len())
	assert.True(t, log.Contains(msg))
	assert.Equal(t, now, log.All()[0].CreatedAt)
}

func TestAppendKeepsID(t *testing.T) {
	log := alerts.NewLog()
	a, ok := log.Append(alerts.Alert{ID: "fixed", Message: "m"})
	require.True(t, ok)
	assert.Equal(t, "fixed", a.ID)
}

func TestRecent(t *testing.T) {
	log := alerts.NewLog()
	for i := 0; i < 5; i++ {
		log.Append(alerts.Alert{Message: fmt.Sprintf("alert %d", i)})
	}

	recent := log.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "alert 2", recent[0].Message)
	assert.Equal(t, "alert 4", recent[2].Message)

	assert.Len(t, log.Recent(10), 5)
	assert.Empty(t, log.Recent(0))
	assert.Len(t, log.All(), 5, "full history is retained")
}
