// Package server provides the HTTP API for the sessiond daemon, served
// over a Unix socket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/grovetools/sessiond/config"
	sderr "github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/internal/active"
	"github.com/grovetools/sessiond/internal/daemon/engine"
	"github.com/grovetools/sessiond/internal/export"
	"github.com/grovetools/sessiond/internal/index"
	"github.com/grovetools/sessiond/pkg/models"
	"github.com/grovetools/sessiond/pkg/paths"
	"github.com/grovetools/sessiond/pkg/stats"
	"github.com/grovetools/sessiond/pkg/todos"
)

// RunningConfig is the active daemon configuration, exposed via /api/config
// so clients can verify what the daemon is actually using.
type RunningConfig struct {
	ClaudeDir    string        `json:"claude_dir"`
	ScanInterval time.Duration `json:"scan_interval"`
	ActiveWindow time.Duration `json:"active_window"`
	StartedAt    time.Time     `json:"started_at"`
}

// Server manages the daemon's HTTP server over a Unix socket.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	engine        *engine.Engine
	cfg           *config.Config
	claudeDir     string
	detector      *active.Detector
	runningConfig *RunningConfig
}

// New creates a Server instance.
func New(cfg *config.Config, claudeDir string, logger *logrus.Entry) *Server {
	return &Server{
		logger:    logger,
		cfg:       cfg,
		claudeDir: claudeDir,
		detector:  active.NewDetector(claudeDir, cfg.ActiveWindow.Std()),
	}
}

// SetEngine sets the collector engine for the server.
func (s *Server) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(cfg *RunningConfig) {
	s.runningConfig = cfg
}

// ListenAndServe starts the daemon on the given unix socket path and
// blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{
		Handler: h2c.NewHandler(s.routes(), &http2.Server{}),
	}

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/active", s.handleActiveSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleGetMessages)
	mux.HandleFunc("GET /api/sessions/{id}/context", s.handleGetContext)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/artifacts", s.handleArtifacts)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("GET /api/stream", s.handleStream)

	return mux
}

func (s *Server) snapshot(w http.ResponseWriter) *index.Snapshot {
	if s.engine == nil {
		http.Error(w, "engine not initialized", http.StatusServiceUnavailable)
		return nil
	}
	return s.engine.Store().Snapshot()
}

// activeSet derives the current active sessions for one request. Liveness
// is never cached in the snapshot; every query recomputes it from the
// liveness pointer and file recency.
func (s *Server) activeSet(snap *index.Snapshot) map[string]bool {
	return s.detector.ActiveSessions(snap.Sessions())
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps structured error codes onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch sderr.GetCode(err) {
	case sderr.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case sderr.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if se, ok := err.(*sderr.SessiondError); ok {
		fmt.Fprint(w, se.ToJSON())
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// pagination parses offset/limit query parameters, clamping the limit to
// the configured maximum.
func (s *Server) pagination(r *http.Request) (offset, limit int) {
	limit = s.cfg.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return offset, limit
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	offset, limit := s.pagination(r)
	page := snap.List(index.ListOptions{
		Offset:     offset,
		Limit:      limit,
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Project:    r.URL.Query().Get("project"),
	}, s.activeSet(snap))
	s.writeJSON(w, page)
}

func (s *Server) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	sessions := snap.Active(s.activeSet(snap))
	if sessions == nil {
		sessions = []*models.Session{}
	}
	s.writeJSON(w, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	sess, err := snap.Session(r.PathValue("id"), s.activeSet(snap))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, sess)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	sess, err := snap.Session(r.PathValue("id"), nil)
	if err != nil {
		s.writeError(w, err)
		return
	}

	offset, limit := s.pagination(r)
	msgs := sess.Messages
	total := len(msgs)
	if offset >= total {
		msgs = nil
	} else if offset+limit < total {
		msgs = msgs[offset : offset+limit]
	} else {
		msgs = msgs[offset:]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	s.writeJSON(w, map[string]interface{}{
		"session_id": sess.ID,
		"messages":   msgs,
		"total":      total,
		"offset":     offset,
		"limit":      limit,
	})
}

func (s *Server) handleGetContext(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	sess, err := snap.Session(r.PathValue("id"), nil)
	if err != nil {
		s.writeError(w, err)
		return
	}

	todoItems, err := todos.Load(paths.TodosDir(s.claudeDir), sess.ID)
	if err != nil {
		s.logger.WithError(err).WithField("session", sess.ID).Warn("Todo file unreadable, exporting without todos")
		todoItems = nil
	}

	opts := export.DefaultOptions()
	opts.RecentMessages = s.cfg.ExcerptMessages
	ctx := export.BuildContext(sess, todoItems, opts)

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, export.Markdown(ctx))
		return
	}
	s.writeJSON(w, ctx)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, sderr.New(sderr.ErrCodeInvalidInput, "missing query parameter 'q'"))
		return
	}

	matches := snap.Search(query, index.SearchOptions{
		ExcludeThinking: r.URL.Query().Get("exclude_thinking") == "true",
	}, s.activeSet(snap))

	offset, limit := s.pagination(r)
	total := len(matches)
	if offset >= total {
		matches = nil
	} else if offset+limit < total {
		matches = matches[offset : offset+limit]
	} else {
		matches = matches[offset:]
	}
	if matches == nil {
		matches = []index.Match{}
	}
	s.writeJSON(w, map[string]interface{}{
		"query":   query,
		"matches": matches,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	ledger := snap.Artifacts()
	q := r.URL.Query()

	if path := q.Get("path"); path != "" {
		s.writeJSON(w, ledger.History(path))
		return
	}

	var artifacts []models.Artifact
	if sessionID := q.Get("session"); sessionID != "" {
		artifacts = ledger.BySession(sessionID)
	} else {
		artifacts = ledger.Recent(models.FileType(q.Get("type")))
	}
	if artifacts == nil {
		artifacts = []models.Artifact{}
	}
	s.writeJSON(w, artifacts)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	page := snap.List(index.ListOptions{}, s.activeSet(snap))
	snapStats := stats.Collect(paths.StatsCachePath(s.claudeDir), page.Sessions)
	s.writeJSON(w, map[string]interface{}{
		"sessions":   snapStats,
		"artifacts":  snap.Artifacts().Stats(),
		"generation": snap.Generation(),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.runningConfig)
}
