package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/sessiond/config"
	"github.com/grovetools/sessiond/internal/daemon/engine"
	"github.com/grovetools/sessiond/internal/daemon/store"
	"github.com/grovetools/sessiond/internal/index"
	"github.com/grovetools/sessiond/pkg/models"
)

func testServer(t *testing.T, sessions []*models.Session) (*httptest.Server, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logrus.NewEntry(logger)

	claudeDir := t.TempDir()
	st := store.New()
	st.ApplyUpdate(store.Update{Type: store.UpdateSnapshot, Payload: index.Build(1, sessions)})

	srv := New(config.Default(), claudeDir, entry)
	srv.SetEngine(engine.New(st, entry))
	srv.SetRunningConfig(&RunningConfig{
		ClaudeDir:    claudeDir,
		ScanInterval: 10 * time.Second,
		ActiveWindow: 5 * time.Minute,
		StartedAt:    time.Now(),
	})

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, claudeDir
}

func apiSessions() []*models.Session {
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	return []*models.Session{
		{
			ID:           "sess-a",
			ProjectPath:  "/home/user/billing/api",
			StartTime:    base,
			LastActivity: base.Add(time.Hour),
			MessageCount: 2,
			Messages: []models.Message{
				{UUID: "m1", Role: models.RoleUser, Timestamp: base, Content: "fix the invoice rounding"},
				{UUID: "m2", Role: models.RoleAssistant, Timestamp: base.Add(time.Minute), Content: "Rounded at the cent boundary.",
					ToolCalls: []models.ToolCall{{ID: "t1", Name: "Edit", FilePath: "/home/user/billing/api/invoice.go", Operation: models.OpEdit}}},
			},
		},
		{
			ID:           "sess-b",
			ProjectPath:  "/home/user/blog",
			StartTime:    base,
			LastActivity: base.Add(30 * time.Minute),
			MessageCount: 1,
			Messages: []models.Message{
				{UUID: "m3", Role: models.RoleUser, Timestamp: base, Content: "draft a post about goroutines"},
			},
		},
	}
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestHealth(t *testing.T) {
	ts, _ := testServer(t, nil)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListSessions(t *testing.T) {
	ts, _ := testServer(t, apiSessions())

	var page index.Page
	getJSON(t, ts.URL+"/api/sessions", &page)

	require.Len(t, page.Sessions, 2)
	assert.Equal(t, "sess-a", page.Sessions[0].ID, "most recent activity first")
	assert.Equal(t, 2, page.Total)
}

func TestListSessionsPagination(t *testing.T) {
	ts, _ := testServer(t, apiSessions())

	var page index.Page
	getJSON(t, ts.URL+"/api/sessions?limit=1&offset=1", &page)

	require.Len(t, page.Sessions, 1)
	assert.Equal(t, "sess-b", page.Sessions[0].ID)
	assert.Equal(t, 2, page.Total)
}

func TestGetSession(t *testing.T) {
	ts, _ := testServer(t, apiSessions())

	var sess models.Session
	resp := getJSON(t, ts.URL+"/api/sessions/sess-a", &sess)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/home/user/billing/api", sess.ProjectPath)

	resp, err := http.Get(ts.URL + "/api/sessions/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMessages(t *testing.T) {
	ts, _ := testServer(t, apiSessions())

	var body struct {
		Messages []models.Message `json:"messages"`
		Total    int              `json:"total"`
	}
	getJSON(t, ts.URL+"/api/sessions/sess-a/messages?limit=1", &body)
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "m1", body.Messages[0].UUID)
}

func TestActiveSessions(t *testing.T) {
	ts, claudeDir := testServer(t, apiSessions())

	debugDir := filepath.Join(claudeDir, "debug")
	require.NoError(t, os.MkdirAll(debugDir, 0o755))
	debugLog := filepath.Join(debugDir, "sess-b.txt")
	require.NoError(t, os.WriteFile(debugLog, []byte("log"), 0o644))

	var active []*models.Session
	getJSON(t, ts.URL+"/api/sessions/active", &active)
	require.Len(t, active, 1)
	assert.Equal(t, "sess-b", active[0].ID)
	assert.True(t, active[0].IsActive)

	// Age the debug log past the freshness window. No rescan happens in
	// between, so the very next query must already see the session idle.
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(debugLog, stale, stale))

	var after []*models.Session
	getJSON(t, ts.URL+"/api/sessions/active", &after)
	assert.Empty(t, after)
}

func TestSearch(t *testing.T) {
	ts, _ := testServer(t, apiSessions())

	var body struct {
		Matches []index.Match `json:"matches"`
		Total   int           `json:"total"`
	}
	getJSON(t, ts.URL+"/api/search?q=goroutines", &body)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Matches, 1)
	assert.Equal(t, "sess-b", body.Matches[0].Session.ID)

	resp, err := http.Get(ts.URL + "/api/search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestArtifacts(t *testing.T) {
	ts, _ := testServer(t, apiSessions())

	var artifacts []models.Artifact
	getJSON(t, ts.URL+"/api/artifacts", &artifacts)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "/home/user/billing/api/invoice.go", artifacts[0].FilePath)

	var history []models.Artifact
	getJSON(t, ts.URL+"/api/artifacts?path=/home/user/billing/api/invoice.go", &history)
	assert.Len(t, history, 1)

	var none []models.Artifact
	getJSON(t, ts.URL+"/api/artifacts?type=document", &none)
	assert.Empty(t, none)
}

func TestContextMarkdown(t *testing.T) {
	ts, claudeDir := testServer(t, apiSessions())

	todosDir := filepath.Join(claudeDir, "todos")
	require.NoError(t, os.MkdirAll(todosDir, 0o755))
	todoJSON := `[{"content": "verify rounding edge cases", "status": "pending"}]`
	require.NoError(t, os.WriteFile(filepath.Join(todosDir, "sess-a.json"), []byte(todoJSON), 0o644))

	resp, err := http.Get(ts.URL + "/api/sessions/sess-a/context?format=markdown")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	doc := string(body)
	assert.True(t, strings.HasPrefix(doc, "# Session Context Continuation"))
	assert.Contains(t, doc, "- [ ] verify rounding edge cases")
	assert.Contains(t, doc, "claude --continue sess-a")
}

func TestContextJSON(t *testing.T) {
	ts, _ := testServer(t, apiSessions())

	var ctx models.SessionContext
	getJSON(t, ts.URL+"/api/sessions/sess-a/context", &ctx)
	assert.Equal(t, "sess-a", ctx.SessionID)
	assert.Equal(t, []string{"/home/user/billing/api/invoice.go"}, ctx.KeyFiles)
}

func TestStats(t *testing.T) {
	ts, _ := testServer(t, apiSessions())

	var body struct {
		Sessions   models.StatsSnapshot `json:"sessions"`
		Artifacts  models.ArtifactStats `json:"artifacts"`
		Generation uint64               `json:"generation"`
	}
	getJSON(t, ts.URL+"/api/stats", &body)
	assert.Equal(t, 2, body.Sessions.TotalSessions)
	assert.Equal(t, 3, body.Sessions.TotalMessages)
	assert.False(t, body.Sessions.FromCache)
	assert.Equal(t, 1, body.Artifacts.Total)
	assert.Equal(t, uint64(1), body.Generation)
}

func TestRunningConfig(t *testing.T) {
	ts, _ := testServer(t, nil)

	var cfg RunningConfig
	getJSON(t, ts.URL+"/api/config", &cfg)
	assert.Equal(t, 10*time.Second, cfg.ScanInterval)
}
