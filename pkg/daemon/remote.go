package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	sderr "github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/pkg/models"
)

// baseURL is the dummy host used for Unix socket HTTP requests. The
// actual connection goes through the socket, not this URL.
const baseURL = "http://unix"

// RemoteClient implements Client against the daemon's HTTP API over a
// Unix socket.
type RemoteClient struct {
	httpClient *http.Client
	socketPath string
}

// NewRemoteClient creates a RemoteClient connected to the daemon socket.
func NewRemoteClient(socketPath string) (*RemoteClient, error) {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		DisableKeepAlives: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}

	return &RemoteClient{
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
		socketPath: socketPath,
	}, nil
}

// getJSON performs a GET and decodes the JSON response into out.
func (c *RemoteClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sderr.Wrap(err, sderr.ErrCodeDaemonUnreachable, "daemon request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return nil
}

// decodeAPIError recovers a structured error from an error response so
// callers can match on the code.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var se sderr.SessiondError
	if err := json.Unmarshal(body, &se); err == nil && se.Code != "" {
		return &se
	}
	return fmt.Errorf("daemon returned status %d", resp.StatusCode)
}

// ListSessions returns sessions ordered by most recent activity.
func (c *RemoteClient) ListSessions(ctx context.Context, opts ListOptions) (*SessionPage, error) {
	q := url.Values{}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.ActiveOnly {
		q.Set("active", "true")
	}
	if opts.Project != "" {
		q.Set("project", opts.Project)
	}

	var page SessionPage
	if err := c.getJSON(ctx, "/api/sessions?"+q.Encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ActiveSessions returns only the sessions considered active right now.
func (c *RemoteClient) ActiveSessions(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := c.getJSON(ctx, "/api/sessions/active", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns one session by ID.
func (c *RemoteClient) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := c.getJSON(ctx, "/api/sessions/"+url.PathEscape(id), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetMessages returns one page of a session's conversation.
func (c *RemoteClient) GetMessages(ctx context.Context, id string, offset, limit int) (*MessagePage, error) {
	q := url.Values{}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var page MessagePage
	path := fmt.Sprintf("/api/sessions/%s/messages?%s", url.PathEscape(id), q.Encode())
	if err := c.getJSON(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetContext returns the structured continuation context for a session.
func (c *RemoteClient) GetContext(ctx context.Context, id string) (*models.SessionContext, error) {
	var sc models.SessionContext
	if err := c.getJSON(ctx, fmt.Sprintf("/api/sessions/%s/context", url.PathEscape(id)), &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ExportMarkdown returns the rendered continuation document.
func (c *RemoteClient) ExportMarkdown(ctx context.Context, id string) (string, error) {
	path := fmt.Sprintf("/api/sessions/%s/context?format=markdown", url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", sderr.Wrap(err, sderr.ErrCodeDaemonUnreachable, "daemon request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Search runs a substring search over the indexed sessions.
func (c *RemoteClient) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.ExcludeThinking {
		q.Set("exclude_thinking", "true")
	}

	var result SearchResult
	if err := c.getJSON(ctx, "/api/search?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Artifacts lists files the indexed sessions created or edited.
func (c *RemoteClient) Artifacts(ctx context.Context, query ArtifactQuery) ([]models.Artifact, error) {
	q := url.Values{}
	if query.Type != "" {
		q.Set("type", query.Type)
	}
	if query.Session != "" {
		q.Set("session", query.Session)
	}
	if query.Path != "" {
		q.Set("path", query.Path)
	}

	var artifacts []models.Artifact
	if err := c.getJSON(ctx, "/api/artifacts?"+q.Encode(), &artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// Stats returns aggregate statistics.
func (c *RemoteClient) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := c.getJSON(ctx, "/api/stats", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Stream subscribes to the daemon's websocket update feed. The returned
// channel closes when the connection drops or the context is canceled.
func (c *RemoteClient) Stream(ctx context.Context) (<-chan StreamEvent, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", c.socketPath)
		},
		HandshakeTimeout: 5 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, "ws://unix/api/stream", nil)
	if err != nil {
		return nil, sderr.Wrap(err, sderr.ErrCodeDaemonUnreachable, "failed to open stream")
	}

	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var event StreamEvent
			if err := conn.ReadJSON(&event); err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Tear the connection down on cancellation so the reader unblocks.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return events, nil
}

// IsRunning reports whether the daemon responds to a health check.
func (c *RemoteClient) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
