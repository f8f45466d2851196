package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/sessiond/internal/daemon/store"
	"github.com/grovetools/sessiond/internal/index"
)

func collectorLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func writeLine(t *testing.T, path, uuid, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	defer f.Close()
	line := fmt.Sprintf(`{"type":"user","uuid":"%s","timestamp":"2026-08-20T10:00:00Z","message":{"role":"user","content":"%s"}}`, uuid, text)
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
}

func waitSnapshot(t *testing.T, updates <-chan store.Update) *index.Snapshot {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.Type == store.UpdateSnapshot {
				return u.Payload.(*index.Snapshot)
			}
		case <-deadline:
			t.Fatal("no snapshot update received")
		}
	}
}

func TestScanCollectorPublishesOnStartAndNudge(t *testing.T) {
	claudeDir := t.TempDir()
	projectDir := filepath.Join(claudeDir, "projects", "-tmp-proj")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	transcript := filepath.Join(projectDir, "sess-1.jsonl")
	writeLine(t, transcript, "u1", "hello")

	c := NewScanCollector(claudeDir, time.Hour, collectorLogger())
	st := store.New()
	updates := make(chan store.Update, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, st, updates) }()

	first := waitSnapshot(t, updates)
	assert.Equal(t, uint64(1), first.Generation())
	assert.Equal(t, 1, first.Len())

	writeLine(t, transcript, "u2", "more")
	c.Nudge()

	second := waitSnapshot(t, updates)
	assert.Equal(t, uint64(2), second.Generation())
	s, err := second.Session("sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.MessageCount)

	cancel()
	require.NoError(t, <-done)
}

func TestScanCollectorQuiescentPassPublishesNothing(t *testing.T) {
	claudeDir := t.TempDir()
	projectDir := filepath.Join(claudeDir, "projects", "-tmp-proj")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	writeLine(t, filepath.Join(projectDir, "sess-1.jsonl"), "u1", "hello")

	c := NewScanCollector(claudeDir, time.Hour, collectorLogger())
	st := store.New()
	updates := make(chan store.Update, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx, st, updates) }()

	waitSnapshot(t, updates)

	// Nothing changed; a nudged pass stays silent.
	c.Nudge()
	select {
	case u := <-updates:
		t.Fatalf("unexpected update after quiescent pass: %v", u.Type)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestScanCollectorReportsDiscontinuity(t *testing.T) {
	claudeDir := t.TempDir()
	projectDir := filepath.Join(claudeDir, "projects", "-tmp-proj")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	transcript := filepath.Join(projectDir, "sess-1.jsonl")
	writeLine(t, transcript, "u1", "hello")
	writeLine(t, transcript, "u2", "more")

	c := NewScanCollector(claudeDir, time.Hour, collectorLogger())
	st := store.New()
	updates := make(chan store.Update, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx, st, updates) }()

	waitSnapshot(t, updates)

	// Truncate the transcript to a shorter prefix.
	require.NoError(t, os.WriteFile(transcript, nil, 0o644))
	writeLine(t, transcript, "u1", "hello")
	c.Nudge()

	deadline := time.After(3 * time.Second)
	var sawDiscontinuity bool
	for !sawDiscontinuity {
		select {
		case u := <-updates:
			if u.Type == store.UpdateDiscontinuity {
				assert.Equal(t, []string{"sess-1"}, u.Payload)
				sawDiscontinuity = true
			}
		case <-deadline:
			t.Fatal("no discontinuity update received")
		}
	}

	snap := waitSnapshot(t, updates)
	s, err := snap.Session("sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.MessageCount)
}
