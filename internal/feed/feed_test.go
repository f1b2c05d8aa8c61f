package feed_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gaze/internal/feed"
	"github.com/agentstation/gaze/pkg/errors"
)

const (
	hit  = `info: ::ffff:10.0.0.5 - "GET /modules/chem-101/index.html HTTP/1.1" 200`
	miss = `systemd[1]: Started oc4d.service.`
)

type lines struct {
	mu  sync.Mutex
	got []string
}

func (l *lines) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, s)
}

func (l *lines) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.got...)
}

func TestReaderSource(t *testing.T) {
	src := feed.NewReader("stdin", strings.NewReader(hit+"\n"+miss+"\n"+hit+"\n"))
	var got lines

	require.NoError(t, src.Stream(context.Background(), got.add))
	assert.Equal(t, []string{hit, hit}, got.snapshot())
	assert.Equal(t, "stdin", src.Name())
}

func TestReaderSourceCustomFilter(t *testing.T) {
	src := &feed.ReaderSource{R: strings.NewReader(hit + "\n" + miss), Filter: feed.All}
	var got lines

	require.NoError(t, src.Stream(context.Background(), got.add))
	assert.Len(t, got.snapshot(), 2)
	assert.Equal(t, "reader", src.Name())
}

func TestReaderSourceSkipsOversizedLine(t *testing.T) {
	long := `info: 10.0.0.9 - "GET /modules/` + strings.Repeat("x", 70*1024) + `/index.html HTTP/1.1" 200`
	src := feed.NewReader("stdin", strings.NewReader(long+"\n"+hit+"\r\n"+hit))
	var got lines

	require.NoError(t, src.Stream(context.Background(), got.add))
	assert.Equal(t, []string{hit, hit}, got.snapshot())
}

func TestJournalArgs(t *testing.T) {
	src := feed.NewJournal("", "")
	assert.Equal(t,
		[]string{"-u", "oc4d.service", "-f", "--no-pager", "-o", "short-iso", "--since", "1 minute ago"},
		src.Args())
	assert.Equal(t, "journal:oc4d.service", src.Name())
}

func TestJournalResumesAfterLastLine(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "journal")
	calls := filepath.Join(dir, "calls")
	bin := filepath.Join(dir, "journalctl")
	script := "#!/bin/sh\necho \"$@\" >> " + calls + "\ncat " + out + "\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	entry := func(stamp, path string) string {
		return stamp + ` oc4d node[812]: info: 10.0.0.9 - "GET /modules/` + path + `/index.html HTTP/1.1" 200`
	}
	first := []string{
		entry("2025-05-12T09:14:03+0000", "a"),
		entry("2025-05-12T09:14:04+0000", "b"),
		entry("2025-05-12T09:14:04+0000", "c"),
	}
	require.NoError(t, os.WriteFile(out, []byte(strings.Join(first, "\n")+"\n"), 0o644))

	src := &feed.JournalSource{Unit: "oc4d.service", Binary: bin}
	var got lines
	err := src.Stream(context.Background(), got.add)
	assert.True(t, errors.IsFeedStopped(err))
	assert.Equal(t, first, got.snapshot())

	// journalctl --since is inclusive, so the restart sees the 09:14:04
	// lines again along with the new one.
	next := entry("2025-05-12T09:14:04+0000", "d")
	require.NoError(t, os.WriteFile(out, []byte(strings.Join(append(first, next), "\n")+"\n"), 0o644))

	var again lines
	err = src.Stream(context.Background(), again.add)
	assert.True(t, errors.IsFeedStopped(err))
	assert.Equal(t, []string{next}, again.snapshot())

	b, err := os.ReadFile(calls)
	require.NoError(t, err)
	invocations := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, invocations, 2)
	assert.Contains(t, invocations[0], "--since 1 minute ago")
	assert.Contains(t, invocations[1], "--since 2025-05-12 09:14:04 UTC")
}

func TestCommandSourceExitIsTerminal(t *testing.T) {
	src := &feed.CommandSource{
		Command: "sh",
		Args:    []string{"-c", `printf '%s\n%s\n' "$0" "$1"; echo 'journal gone' >&2`, hit, miss},
	}
	var got lines

	err := src.Stream(context.Background(), got.add)
	require.Error(t, err)
	assert.True(t, errors.IsFeedStopped(err))

	var pe *errors.ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "journal gone", pe.Output)
	assert.Equal(t, []string{hit}, got.snapshot())
}

func TestCommandSourceStartFailure(t *testing.T) {
	src := &feed.CommandSource{Command: "/nonexistent/journalctl"}
	err := src.Stream(context.Background(), func(string) {})
	var pe *errors.ProcessError
	assert.ErrorAs(t, err, &pe)
}

func TestCommandSourceCancel(t *testing.T) {
	src := &feed.CommandSource{Command: "sleep", Args: []string{"30"}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- src.Stream(ctx, func(string) {}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("command source did not stop after cancel")
	}
}

func TestFileSourceFollows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(hit+"\n"), 0o644))

	nop := zerolog.Nop()
	src := &feed.FileSource{Path: path, Logger: &nop}
	var got lines

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Stream(ctx, got.add) }()

	// Existing content is skipped; appended content is delivered once whole.
	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(miss + "\n" + hit[:20])
	require.NoError(t, err)
	_, err = f.WriteString(hit[20:] + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, hit, got.snapshot()[0])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("file source did not stop after cancel")
	}
}

func TestFileSourceFromStartAndRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(hit+"\n"), 0o644))

	nop := zerolog.Nop()
	src := &feed.FileSource{Path: path, FromStart: true, Logger: &nop}
	var got lines

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = src.Stream(ctx, got.add) }()

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Rename(path, path+".1"))
	require.NoError(t, os.WriteFile(path, []byte(hit+"\n"), 0o644))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := feed.NewFile(filepath.Join(t.TempDir(), "missing.log"))
	err := src.Stream(context.Background(), func(string) {})

	var ioErr *errors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Operation)
}
