package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/sessiond/pkg/models"
)

const cacheJSON = `{
  "totalSessions": 42,
  "totalMessages": 1200,
  "dailyActivity": [{"date": "2026-08-19", "messages": 80, "sessions": 3}],
  "modelUsage": {"claude-sonnet-4-20250514": 40},
  "firstSessionDate": "2026-01-15"
}`

func TestCollectFromCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats-cache.json")
	require.NoError(t, os.WriteFile(path, []byte(cacheJSON), 0o644))

	snap := Collect(path, []*models.Session{{ID: "a", IsActive: true}, {ID: "b"}})

	assert.True(t, snap.FromCache)
	assert.Equal(t, 42, snap.TotalSessions)
	assert.Equal(t, 1200, snap.TotalMessages)
	assert.Equal(t, "2026-01-15", snap.FirstSessionDate)
	require.Len(t, snap.DailyActivity, 1)
	assert.Equal(t, 80, snap.DailyActivity[0].Messages)
	assert.Equal(t, 1, snap.ActiveSessions, "active count comes from the index, not the cache")
}

func TestCollectDerivedWhenCacheMissing(t *testing.T) {
	sessions := []*models.Session{
		{
			ID:           "a",
			MessageCount: 10,
			StartTime:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			ModelsUsed:   []string{"claude-sonnet-4-20250514"},
			Usage:        models.TokenUsage{InputTokens: 100, OutputTokens: 50},
		},
		{
			ID:           "b",
			MessageCount: 5,
			StartTime:    time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
			ModelsUsed:   []string{"claude-sonnet-4-20250514", "claude-opus-4-20250514"},
		},
	}

	snap := Collect(filepath.Join(t.TempDir(), "missing.json"), sessions)

	assert.False(t, snap.FromCache)
	assert.Equal(t, 2, snap.TotalSessions)
	assert.Equal(t, 15, snap.TotalMessages)
	assert.Equal(t, 150, snap.TotalTokens)
	assert.Equal(t, "2026-02-01", snap.FirstSessionDate)
	assert.Equal(t, 2, snap.ModelUsage["claude-sonnet-4-20250514"])
}

func TestCollectDerivedWhenCacheMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats-cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	snap := Collect(path, []*models.Session{{ID: "a", MessageCount: 3}})

	assert.False(t, snap.FromCache)
	assert.Equal(t, 1, snap.TotalSessions)
	assert.Equal(t, 3, snap.TotalMessages)
}

func TestCollectEmpty(t *testing.T) {
	snap := Collect(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Zero(t, snap.TotalSessions)
	assert.Zero(t, snap.ActiveSessions)
	assert.False(t, snap.FromCache)
}
