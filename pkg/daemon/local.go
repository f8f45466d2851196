package daemon

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/sessiond/config"
	sderr "github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/internal/active"
	"github.com/grovetools/sessiond/internal/export"
	"github.com/grovetools/sessiond/internal/index"
	"github.com/grovetools/sessiond/internal/scan"
	"github.com/grovetools/sessiond/pkg/models"
	"github.com/grovetools/sessiond/pkg/paths"
	"github.com/grovetools/sessiond/pkg/stats"
	"github.com/grovetools/sessiond/pkg/todos"
)

// LocalClient implements Client by scanning the Claude directory
// in-process. It provides the same API as the daemon without real-time
// streaming; each query runs an incremental scan pass first, so repeated
// calls only re-read what changed.
type LocalClient struct {
	mu         sync.Mutex
	cfg        *config.Config
	scanner    *scan.Scanner
	detector   *active.Detector
	generation uint64
}

// NewLocalClient creates a LocalClient from the given configuration.
func NewLocalClient(cfg *config.Config) *LocalClient {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	entry := logrus.NewEntry(logger)

	return &LocalClient{
		cfg:      cfg,
		scanner:  scan.NewScanner(cfg.ClaudeDir, entry),
		detector: active.NewDetector(cfg.ClaudeDir, cfg.ActiveWindow.Std()),
	}
}

// snapshot runs a scan pass and builds a fresh index generation. The
// returned active set is derived at query time from the liveness pointer
// and file recency; it is never stored in the snapshot.
func (c *LocalClient) snapshot(ctx context.Context) (*index.Snapshot, map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}
	c.generation++
	return index.Build(c.generation, result.Sessions), c.detector.ActiveSessions(result.Sessions), nil
}

// ListSessions returns sessions ordered by most recent activity.
func (c *LocalClient) ListSessions(ctx context.Context, opts ListOptions) (*SessionPage, error) {
	snap, activeSet, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = c.cfg.DefaultPageSize
	}
	if limit > c.cfg.MaxPageSize {
		limit = c.cfg.MaxPageSize
	}
	page := snap.List(index.ListOptions{
		Offset:     opts.Offset,
		Limit:      limit,
		ActiveOnly: opts.ActiveOnly,
		Project:    opts.Project,
	}, activeSet)
	return &SessionPage{
		Sessions: page.Sessions,
		Total:    page.Total,
		Offset:   page.Offset,
		Limit:    page.Limit,
	}, nil
}

// ActiveSessions returns only the sessions considered active right now.
func (c *LocalClient) ActiveSessions(ctx context.Context) ([]*models.Session, error) {
	snap, activeSet, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Active(activeSet), nil
}

// GetSession returns one session by ID.
func (c *LocalClient) GetSession(ctx context.Context, id string) (*models.Session, error) {
	snap, activeSet, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Session(id, activeSet)
}

// GetMessages returns one page of a session's conversation.
func (c *LocalClient) GetMessages(ctx context.Context, id string, offset, limit int) (*MessagePage, error) {
	sess, err := c.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = c.cfg.DefaultPageSize
	}

	msgs := sess.Messages
	total := len(msgs)
	switch {
	case offset >= total:
		msgs = []models.Message{}
	case offset+limit < total:
		msgs = msgs[offset : offset+limit]
	default:
		msgs = msgs[offset:]
	}
	return &MessagePage{
		SessionID: sess.ID,
		Messages:  msgs,
		Total:     total,
		Offset:    offset,
		Limit:     limit,
	}, nil
}

// buildContext assembles the continuation context for a session.
func (c *LocalClient) buildContext(ctx context.Context, id string) (models.SessionContext, error) {
	sess, err := c.GetSession(ctx, id)
	if err != nil {
		return models.SessionContext{}, err
	}
	todoItems, err := todos.Load(paths.TodosDir(c.cfg.ClaudeDir), id)
	if err != nil {
		todoItems = nil
	}
	opts := export.DefaultOptions()
	opts.RecentMessages = c.cfg.ExcerptMessages
	return export.BuildContext(sess, todoItems, opts), nil
}

// GetContext returns the structured continuation context for a session.
func (c *LocalClient) GetContext(ctx context.Context, id string) (*models.SessionContext, error) {
	sc, err := c.buildContext(ctx, id)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ExportMarkdown returns the rendered continuation document.
func (c *LocalClient) ExportMarkdown(ctx context.Context, id string) (string, error) {
	sc, err := c.buildContext(ctx, id)
	if err != nil {
		return "", err
	}
	return export.Markdown(sc), nil
}

// Search runs a substring search over the indexed sessions.
func (c *LocalClient) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	snap, activeSet, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	matches := snap.Search(query, index.SearchOptions{ExcludeThinking: opts.ExcludeThinking}, activeSet)

	result := &SearchResult{Query: query, Total: len(matches)}
	limit := opts.Limit
	if limit <= 0 {
		limit = c.cfg.DefaultPageSize
	}
	for i := opts.Offset; i < len(matches) && len(result.Matches) < limit; i++ {
		m := matches[i]
		result.Matches = append(result.Matches, SearchMatch{
			Session: m.Session,
			Field:   m.Field,
			Excerpt: m.Excerpt,
		})
	}
	return result, nil
}

// Artifacts lists files the indexed sessions created or edited.
func (c *LocalClient) Artifacts(ctx context.Context, q ArtifactQuery) ([]models.Artifact, error) {
	snap, _, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ledger := snap.Artifacts()
	switch {
	case q.Path != "":
		return ledger.History(q.Path), nil
	case q.Session != "":
		return ledger.BySession(q.Session), nil
	default:
		return ledger.Recent(models.FileType(q.Type)), nil
	}
}

// Stats returns aggregate statistics.
func (c *LocalClient) Stats(ctx context.Context) (*Stats, error) {
	snap, activeSet, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	page := snap.List(index.ListOptions{}, activeSet)
	return &Stats{
		Sessions:   stats.Collect(paths.StatsCachePath(c.cfg.ClaudeDir), page.Sessions),
		Artifacts:  snap.Artifacts().Stats(),
		Generation: snap.Generation(),
	}, nil
}

// Stream is unavailable in local mode.
func (c *LocalClient) Stream(ctx context.Context) (<-chan StreamEvent, error) {
	return nil, sderr.New(sderr.ErrCodeDaemonNotRunning,
		"streaming not available in local mode; start the daemon for real-time updates")
}

// IsRunning always reports false for the local client.
func (c *LocalClient) IsRunning() bool { return false }

// Close is a no-op for the local client.
func (c *LocalClient) Close() error { return nil }
