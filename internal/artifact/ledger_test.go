package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/sessiond/pkg/models"
)

func sessionWithWrites(id string, writes ...models.ToolCall) *models.Session {
	s := &models.Session{ID: id, ProjectPath: "/home/user/proj"}
	for i, call := range writes {
		s.Messages = append(s.Messages, models.Message{
			UUID:      id + "-msg-" + string(rune('a'+i)),
			Role:      models.RoleAssistant,
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			ToolCalls: []models.ToolCall{call},
		})
	}
	return s
}

var baseTime = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

func TestClassifyFile(t *testing.T) {
	cases := map[string]models.FileType{
		"/tmp/main.go":        models.FileTypeCode,
		"/tmp/app.PY":         models.FileTypeCode,
		"/tmp/index.html":     models.FileTypeWeb,
		"/tmp/config.yaml":    models.FileTypeConfig,
		"/tmp/notes.md":       models.FileTypeDocument,
		"/tmp/run.sh":         models.FileTypeShell,
		"/tmp/export.csv":     models.FileTypeData,
		"/tmp/logo.png":       models.FileTypeImage,
		"/tmp/archive.tar.gz": models.FileTypeOther,
		"/tmp/Makefile":       models.FileTypeOther,
	}
	for path, want := range cases {
		assert.Equal(t, want, ClassifyFile(path), path)
	}
}

func TestExtractDedupByPath(t *testing.T) {
	s := sessionWithWrites("sess-1",
		models.ToolCall{Name: "Write", Status: models.ToolStatusOK, FilePath: "/tmp/x.py", Operation: models.OpCreate},
		models.ToolCall{Name: "Edit", Status: models.ToolStatusOK, FilePath: "/tmp/x.py", Operation: models.OpEdit},
	)

	l := Extract([]*models.Session{s})

	recent := l.Recent("")
	require.Len(t, recent, 1)
	assert.Equal(t, "/tmp/x.py", recent[0].FilePath)
	assert.Equal(t, models.OpEdit, recent[0].Operation, "latest event wins the recent view")
	assert.Equal(t, baseTime.Add(time.Minute), recent[0].Timestamp)

	history := l.History("/tmp/x.py")
	require.Len(t, history, 2)
	assert.Equal(t, models.OpCreate, history[0].Operation)
	assert.Equal(t, models.OpEdit, history[1].Operation)
}

func TestExtractTimestampTieScanOrder(t *testing.T) {
	a := sessionWithWrites("sess-a",
		models.ToolCall{Name: "Write", FilePath: "/tmp/shared.md", Operation: models.OpCreate})
	b := sessionWithWrites("sess-b",
		models.ToolCall{Name: "Edit", FilePath: "/tmp/shared.md", Operation: models.OpEdit})

	l := Extract([]*models.Session{a, b})

	recent := l.Recent("")
	require.Len(t, recent, 1)
	assert.Equal(t, "sess-a", recent[0].SessionID, "first in scan order wins exact timestamp ties")
}

func TestExtractSkipsNonWrites(t *testing.T) {
	s := sessionWithWrites("sess-1",
		models.ToolCall{Name: "Read", Status: models.ToolStatusOK},
		models.ToolCall{Name: "Bash", Status: models.ToolStatusOK},
		models.ToolCall{Name: "Write", FilePath: "/tmp/out.txt", Operation: models.OpCreate},
	)

	l := Extract([]*models.Session{s})
	assert.Len(t, l.Recent(""), 1)
}

func TestRecentTypeFilterAndOrder(t *testing.T) {
	s := sessionWithWrites("sess-1",
		models.ToolCall{Name: "Write", FilePath: "/tmp/a.go", Operation: models.OpCreate},
		models.ToolCall{Name: "Write", FilePath: "/tmp/b.md", Operation: models.OpCreate},
		models.ToolCall{Name: "Write", FilePath: "/tmp/c.go", Operation: models.OpCreate},
	)

	l := Extract([]*models.Session{s})

	code := l.Recent(models.FileTypeCode)
	require.Len(t, code, 2)
	assert.Equal(t, "/tmp/c.go", code[0].FilePath, "newest first")
	assert.Equal(t, "/tmp/a.go", code[1].FilePath)

	docs := l.Recent(models.FileTypeDocument)
	require.Len(t, docs, 1)
	assert.Equal(t, "/tmp/b.md", docs[0].FilePath)
}

func TestExistenceResolvedAtQueryTime(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.go")
	require.NoError(t, os.WriteFile(present, []byte("package main\n"), 0o644))
	absent := filepath.Join(dir, "deleted.go")

	s := sessionWithWrites("sess-1",
		models.ToolCall{Name: "Write", FilePath: present, Operation: models.OpCreate},
		models.ToolCall{Name: "Write", FilePath: absent, Operation: models.OpCreate},
	)

	l := Extract([]*models.Session{s})
	recent := l.Recent("")
	require.Len(t, recent, 2)

	byPath := map[string]models.Artifact{}
	for _, a := range recent {
		byPath[a.FilePath] = a
	}
	assert.True(t, byPath[present].Exists)
	assert.Equal(t, int64(13), byPath[present].Size)
	assert.False(t, byPath[absent].Exists)
}

func TestBySessionAndStats(t *testing.T) {
	a := sessionWithWrites("sess-a",
		models.ToolCall{Name: "Write", FilePath: "/tmp/a.go", Operation: models.OpCreate})
	b := sessionWithWrites("sess-b",
		models.ToolCall{Name: "Write", FilePath: "/tmp/b.sh", Operation: models.OpCreate},
		models.ToolCall{Name: "Write", FilePath: "/tmp/b.md", Operation: models.OpCreate})

	l := Extract([]*models.Session{a, b})

	assert.Len(t, l.BySession("sess-b"), 2)
	assert.Empty(t, l.BySession("sess-missing"))

	stats := l.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.SessionCount)
	assert.Equal(t, 1, stats.ByType[models.FileTypeCode])
	assert.Equal(t, 1, stats.ByType[models.FileTypeShell])
	assert.Equal(t, 1, stats.ByType[models.FileTypeDocument])
}
