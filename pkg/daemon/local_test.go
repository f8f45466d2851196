package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/sessiond/config"
	sderr "github.com/grovetools/sessiond/errors"
)

func localFixture(t *testing.T) (*LocalClient, string) {
	t.Helper()
	claudeDir := t.TempDir()
	projectDir := filepath.Join(claudeDir, "projects", "-home-user-billing-api")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))

	lines := []string{
		`{"type":"summary","summary":"Invoice rounding fix"}`,
		`{"type":"user","uuid":"u1","timestamp":"2026-08-20T10:00:00Z","message":{"role":"user","content":"fix the invoice rounding"}}`,
		`{"type":"assistant","uuid":"a1","parentUuid":"u1","timestamp":"2026-08-20T10:01:00Z","message":{"role":"assistant","model":"claude-sonnet-4-20250514","content":[{"type":"text","text":"Rounding at the cent boundary."},{"type":"tool_use","id":"t1","name":"Edit","input":{"file_path":"/home/user/billing/api/invoice.go"}}]}}`,
	}
	transcript := filepath.Join(projectDir, "sess-local.jsonl")
	f, err := os.Create(transcript)
	require.NoError(t, err)
	for _, line := range lines {
		fmt.Fprintln(f, line)
	}
	require.NoError(t, f.Close())

	cfg := config.Default()
	cfg.ClaudeDir = claudeDir
	return NewLocalClient(cfg), claudeDir
}

func TestLocalClientListAndGet(t *testing.T) {
	client, _ := localFixture(t)
	ctx := context.Background()

	page, err := client.ListSessions(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Sessions, 1)
	assert.Equal(t, "sess-local", page.Sessions[0].ID)
	assert.Equal(t, "/home/user/billing/api", page.Sessions[0].ProjectPath)

	sess, err := client.GetSession(ctx, "sess-local")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.MessageCount)
	assert.Equal(t, []string{"Invoice rounding fix"}, sess.Summaries)

	_, err = client.GetSession(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, sderr.ErrCodeSessionNotFound, sderr.GetCode(err))
}

func TestLocalClientSearchAndArtifacts(t *testing.T) {
	client, _ := localFixture(t)
	ctx := context.Background()

	result, err := client.Search(ctx, "cent boundary", SearchOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "message", result.Matches[0].Field)

	artifacts, err := client.Artifacts(ctx, ArtifactQuery{})
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "/home/user/billing/api/invoice.go", artifacts[0].FilePath)
}

func TestLocalClientExport(t *testing.T) {
	client, claudeDir := localFixture(t)
	ctx := context.Background()

	todosDir := filepath.Join(claudeDir, "todos")
	require.NoError(t, os.MkdirAll(todosDir, 0o755))
	todoJSON := `[{"content": "add property tests", "status": "pending"}]`
	require.NoError(t, os.WriteFile(filepath.Join(todosDir, "sess-local.json"), []byte(todoJSON), 0o644))

	doc, err := client.ExportMarkdown(ctx, "sess-local")
	require.NoError(t, err)
	assert.Contains(t, doc, "Invoice rounding fix")
	assert.Contains(t, doc, "- [ ] add property tests")
	assert.Contains(t, doc, "claude --continue sess-local")

	again, err := client.ExportMarkdown(ctx, "sess-local")
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestLocalClientStats(t *testing.T) {
	client, _ := localFixture(t)

	st, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Sessions.TotalSessions)
	assert.Equal(t, 2, st.Sessions.TotalMessages)
	assert.Equal(t, 1, st.Artifacts.Total)
}

func TestLocalClientIncrementalAcrossCalls(t *testing.T) {
	client, claudeDir := localFixture(t)
	ctx := context.Background()

	first, err := client.GetSession(ctx, "sess-local")
	require.NoError(t, err)
	require.Equal(t, 2, first.MessageCount)

	transcript := filepath.Join(claudeDir, "projects", "-home-user-billing-api", "sess-local.jsonl")
	f, err := os.OpenFile(transcript, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	fmt.Fprintln(f, `{"type":"user","uuid":"u2","timestamp":"2026-08-20T10:05:00Z","message":{"role":"user","content":"and add a test"}}`)
	require.NoError(t, f.Close())

	// mtime granularity can hide the append on fast filesystems.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(transcript, future, future))

	second, err := client.GetSession(ctx, "sess-local")
	require.NoError(t, err)
	assert.Equal(t, 3, second.MessageCount)
}

func TestLocalClientStreamUnavailable(t *testing.T) {
	client, _ := localFixture(t)

	_, err := client.Stream(context.Background())
	require.Error(t, err)
	assert.Equal(t, sderr.ErrCodeDaemonNotRunning, sderr.GetCode(err))
	assert.False(t, client.IsRunning())
}
