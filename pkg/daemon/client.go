// Package daemon provides a client for the sessiond daemon. It implements
// a transparent fallback pattern: if the daemon is running its socket is
// used, otherwise queries run an in-process scan over the same data.
package daemon

import (
	"context"

	"github.com/grovetools/sessiond/pkg/models"
)

// ListOptions filters and paginates a session listing.
type ListOptions struct {
	Offset     int
	Limit      int
	ActiveOnly bool
	Project    string
}

// SessionPage is one page of a session listing.
type SessionPage struct {
	Sessions []*models.Session `json:"sessions"`
	Total    int               `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

// MessagePage is one page of a session's conversation.
type MessagePage struct {
	SessionID string           `json:"session_id"`
	Messages  []models.Message `json:"messages"`
	Total     int              `json:"total"`
	Offset    int              `json:"offset"`
	Limit     int              `json:"limit"`
}

// SearchOptions tunes a search query.
type SearchOptions struct {
	Offset          int
	Limit           int
	ExcludeThinking bool
}

// SearchMatch is one search hit.
type SearchMatch struct {
	Session *models.Session `json:"session"`
	Field   string          `json:"field"`
	Excerpt string          `json:"excerpt"`
}

// SearchResult is the response to a search query.
type SearchResult struct {
	Query   string        `json:"query"`
	Matches []SearchMatch `json:"matches"`
	Total   int           `json:"total"`
}

// ArtifactQuery filters an artifact listing. Path takes precedence and
// returns the full event history for that file; Session narrows to one
// session's artifacts; Type filters by classification.
type ArtifactQuery struct {
	Type    string
	Session string
	Path    string
}

// Stats is the aggregate statistics payload.
type Stats struct {
	Sessions   models.StatsSnapshot `json:"sessions"`
	Artifacts  models.ArtifactStats `json:"artifacts"`
	Generation uint64               `json:"generation"`
}

// StreamEvent is one update pushed from the daemon's stream endpoint.
type StreamEvent struct {
	Type       string   `json:"type"`
	Generation uint64   `json:"generation"`
	Sessions   int      `json:"sessions,omitempty"`
	Active     int      `json:"active,omitempty"`
	Rebuilt    []string `json:"rebuilt,omitempty"`
}

// Client is the interface for querying session data. RemoteClient talks
// to the daemon; LocalClient computes answers in-process.
type Client interface {
	// ListSessions returns sessions ordered by most recent activity.
	ListSessions(ctx context.Context, opts ListOptions) (*SessionPage, error)

	// ActiveSessions returns only the sessions considered active right now.
	ActiveSessions(ctx context.Context) ([]*models.Session, error)

	// GetSession returns one session by ID.
	GetSession(ctx context.Context, id string) (*models.Session, error)

	// GetMessages returns one page of a session's conversation.
	GetMessages(ctx context.Context, id string, offset, limit int) (*MessagePage, error)

	// GetContext returns the structured continuation context for a session.
	GetContext(ctx context.Context, id string) (*models.SessionContext, error)

	// ExportMarkdown returns the rendered continuation document.
	ExportMarkdown(ctx context.Context, id string) (string, error)

	// Search runs a substring search over the indexed sessions.
	Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error)

	// Artifacts lists files the indexed sessions created or edited.
	Artifacts(ctx context.Context, q ArtifactQuery) ([]models.Artifact, error)

	// Stats returns aggregate statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Stream subscribes to real-time updates. LocalClient returns an error
	// since streaming needs the daemon.
	Stream(ctx context.Context) (<-chan StreamEvent, error)

	// IsRunning reports whether the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}
