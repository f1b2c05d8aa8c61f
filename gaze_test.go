package gaze_test

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gaze"
	"github.com/agentstation/gaze/internal/feed"
	"github.com/agentstation/gaze/pkg/alerts"
	"github.com/agentstation/gaze/pkg/catalog"
	"github.com/agentstation/gaze/pkg/engine"
	"github.com/agentstation/gaze/pkg/errors"
)

var t0 = time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func accessLine(ip, module string) string {
	return `info: ::ffff:` + ip + ` - [12/May/2025:09:00:00 +0000] "GET /modules/` + module + `/index.html HTTP/1.1" 200 512`
}

var chemistry = catalog.Static{
	{ID: "1", DisplayName: "Chemistry 101", CanonicalContentURL: "http://cdn/modules/chem-101/index.html",
		Categories: []catalog.Category{{Name: "Science"}}},
}

// quietEngine keeps the background passes out of the way; tests drive them.
func quietEngine() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.TickInterval = time.Hour
	cfg.ReapInterval = time.Hour
	cfg.EvaluateInterval = time.Hour
	return cfg
}

func newClient(t *testing.T, opts ...gaze.Option) (gaze.Client, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	nop := zerolog.Nop()

	base := []gaze.Option{
		gaze.WithEngineConfig(quietEngine()),
		gaze.WithClock(clock),
		gaze.WithLogger(&nop),
		gaze.WithAutoRefresh(false),
		gaze.WithFeedRestartDelay(0),
	}
	gz, err := gaze.New(append(base, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = gz.Shutdown(ctx)
	})
	return gz, clock
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := gaze.New(gaze.WithRefreshInterval(0))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	_, err = gaze.New(gaze.WithFeedRestartDelay(-time.Second))
	require.Error(t, err)
}

func TestFeedLinesBecomeSessions(t *testing.T) {
	input := strings.Join([]string{
		accessLine("10.0.0.7", "chem-101"),
		"GET /favicon.ico",
		accessLine("10.0.0.8", "chem-101"),
	}, "\n")

	var mu sync.Mutex
	var started []engine.SessionChange
	stopped := make(chan gaze.FeedStatus, 1)

	gz, _ := newClient(t,
		gaze.WithFeed(feed.NewReader("test", strings.NewReader(input))),
		gaze.WithCatalogSource(chemistry),
	)
	gz.OnSessionStarted(func(s engine.SessionChange) {
		mu.Lock()
		defer mu.Unlock()
		started = append(started, s)
	})
	gz.OnFeedStopped(func(s gaze.FeedStatus) { stopped <- s })

	require.NoError(t, gz.Start(context.Background()))

	select {
	case s := <-stopped:
		assert.Equal(t, "test", s.Source)
		assert.Empty(t, s.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop at end of input")
	}

	mu.Lock()
	require.Len(t, started, 2)
	assert.Equal(t, "Chemistry 101", started[0].DisplayName)
	mu.Unlock()

	assert.Eventually(t, func() bool { return !gz.Monitoring() }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, gz.Engine().Stats(t0).ActiveSessions)
}

func TestAlertHookFiresOncePerViolation(t *testing.T) {
	gz, clock := newClient(t)

	var got []alerts.Alert
	gz.OnAlert(func(a alerts.Alert) { got = append(got, a) })

	e := gz.Engine()
	require.True(t, e.Ingest(accessLine("10.0.0.7", "chem-101")))

	e.Evaluate(clock.Advance(60 * time.Second))
	assert.Empty(t, got)

	e.Evaluate(clock.Advance(time.Second))
	e.Evaluate(clock.Advance(5 * time.Second))
	require.Len(t, got, 1)
	assert.Equal(t, `IP 10.0.0.7 has exceeded 1 minutes on module "chem-101"`, got[0].Message)
}

func TestPanickingHookDoesNotStopOthers(t *testing.T) {
	gz, clock := newClient(t)

	var got []alerts.Alert
	gz.OnAlert(func(alerts.Alert) { panic("hook failure") })
	gz.OnAlert(func(a alerts.Alert) { got = append(got, a) })

	e := gz.Engine()
	require.True(t, e.Ingest(accessLine("10.0.0.7", "chem-101")))
	require.NotPanics(t, func() { e.Evaluate(clock.Advance(61 * time.Second)) })
	assert.Len(t, got, 1)
}

func TestHookCanRegisterHooks(t *testing.T) {
	gz, _ := newClient(t)

	var started, nested int
	gz.OnSessionStarted(func(engine.SessionChange) {
		started++
		gz.OnSessionStarted(func(engine.SessionChange) { nested++ })
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		gz.Engine().Ingest(accessLine("10.0.0.7", "chem-101"))
		gz.Engine().Ingest(accessLine("10.0.0.8", "chem-101"))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("registering a hook from a hook deadlocked")
	}
	assert.Equal(t, 2, started)
	assert.Equal(t, 1, nested)
}

func TestRefreshFailureKeepsPreviousCatalog(t *testing.T) {
	var fail bool
	src := catalog.SourceFunc(func(ctx context.Context) ([]catalog.Entry, error) {
		if fail {
			return nil, stderrors.New("database locked")
		}
		return chemistry.Fetch(ctx)
	})

	gz, _ := newClient(t, gaze.WithCatalogSource(src))
	var updates int
	gz.OnCatalogUpdated(func(engine.CatalogChange) { updates++ })

	require.NoError(t, gz.RefreshCatalog(context.Background()))
	assert.Equal(t, 1, gz.Engine().Catalog().Len())

	fail = true
	err := gz.RefreshCatalog(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database locked")
	assert.Equal(t, 1, gz.Engine().Catalog().Len())
	assert.Equal(t, 1, updates)
}

func TestLifecycleGuards(t *testing.T) {
	gz, _ := newClient(t, gaze.WithFeed(feed.NewReader("empty", strings.NewReader(""))), gaze.WithMonitoring(false))

	err := gz.StartMonitoring()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotRunning))

	require.NoError(t, gz.Start(context.Background()))
	assert.True(t, gz.Running())
	assert.False(t, gz.Monitoring())

	err = gz.Start(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyRunning))

	require.NoError(t, gz.Shutdown(context.Background()))
	assert.False(t, gz.Running())
	require.NoError(t, gz.Shutdown(context.Background()))
}

func TestStartMonitoringWithoutFeed(t *testing.T) {
	gz, _ := newClient(t)
	require.NoError(t, gz.Start(context.Background()))

	err := gz.StartMonitoring()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestOnEventSeesFeedAndEngineEvents(t *testing.T) {
	gz, _ := newClient(t, gaze.WithFeed(feed.NewReader("one", strings.NewReader(accessLine("10.0.0.9", "bio-200")))))

	var mu sync.Mutex
	seen := map[engine.EventType]int{}
	gz.OnEvent(func(ev engine.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen[ev.Type]++
	})

	require.NoError(t, gz.Start(context.Background()))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[gaze.EventFeedStopped] == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen[gaze.EventFeedStarted])
	assert.Equal(t, 1, seen[engine.EventSessionStarted])
	assert.Equal(t, 1, seen[engine.EventCatalogUpdated])
}
