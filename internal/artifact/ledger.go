// Package artifact derives the file-artifact ledger from tool calls across
// all sessions. The ledger is built once per scan pass; existence checks run
// at query time so callers always see the current filesystem state.
package artifact

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grovetools/sessiond/pkg/models"
)

// extensionTypes maps file extensions to their coarse classification.
// Unrecognized extensions fall back to FileTypeOther.
var extensionTypes = map[string]models.FileType{
	// Code
	".py": models.FileTypeCode, ".js": models.FileTypeCode, ".ts": models.FileTypeCode,
	".tsx": models.FileTypeCode, ".jsx": models.FileTypeCode, ".java": models.FileTypeCode,
	".go": models.FileTypeCode, ".rs": models.FileTypeCode, ".c": models.FileTypeCode,
	".cpp": models.FileTypeCode, ".h": models.FileTypeCode, ".rb": models.FileTypeCode,
	".php": models.FileTypeCode, ".swift": models.FileTypeCode, ".kt": models.FileTypeCode,
	".scala": models.FileTypeCode, ".r": models.FileTypeCode,
	// Web
	".html": models.FileTypeWeb, ".css": models.FileTypeWeb, ".scss": models.FileTypeWeb,
	".less": models.FileTypeWeb, ".vue": models.FileTypeWeb, ".svelte": models.FileTypeWeb,
	// Config
	".json": models.FileTypeConfig, ".yaml": models.FileTypeConfig, ".yml": models.FileTypeConfig,
	".toml": models.FileTypeConfig, ".ini": models.FileTypeConfig, ".env": models.FileTypeConfig,
	".xml": models.FileTypeConfig, ".plist": models.FileTypeConfig,
	// Documents
	".md": models.FileTypeDocument, ".txt": models.FileTypeDocument,
	".rst": models.FileTypeDocument, ".org": models.FileTypeDocument,
	// Shell
	".sh": models.FileTypeShell, ".bash": models.FileTypeShell,
	".zsh": models.FileTypeShell, ".fish": models.FileTypeShell,
	// Data
	".csv": models.FileTypeData, ".sql": models.FileTypeData, ".db": models.FileTypeData,
	// Images
	".png": models.FileTypeImage, ".jpg": models.FileTypeImage, ".jpeg": models.FileTypeImage,
	".gif": models.FileTypeImage, ".svg": models.FileTypeImage, ".webp": models.FileTypeImage,
}

// ClassifyFile returns the coarse type for a file path.
func ClassifyFile(path string) models.FileType {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return models.FileTypeOther
}

// Ledger holds all file-write events keyed by path, with a precomputed
// most-recent view. It is immutable after Extract.
type Ledger struct {
	history map[string][]models.Artifact
	recent  []models.Artifact
}

// Extract walks the tool calls of the given sessions and builds the ledger.
// Sessions are visited in the given order; within a path, the most-recent
// view takes the event with the latest timestamp, breaking ties by scan
// order so results stay deterministic.
func Extract(sessions []*models.Session) *Ledger {
	l := &Ledger{history: make(map[string][]models.Artifact)}

	for _, s := range sessions {
		for _, msg := range s.Messages {
			for _, call := range msg.ToolCalls {
				if call.Operation == "" || call.FilePath == "" {
					continue
				}
				ts := msg.Timestamp
				if ts.IsZero() {
					ts = s.LastActivity
				}
				l.history[call.FilePath] = append(l.history[call.FilePath], models.Artifact{
					FilePath:    call.FilePath,
					FileName:    filepath.Base(call.FilePath),
					Type:        ClassifyFile(call.FilePath),
					Operation:   call.Operation,
					SessionID:   s.ID,
					MessageUUID: msg.UUID,
					Timestamp:   ts,
				})
			}
		}
	}

	for _, events := range l.history {
		latest := events[0]
		for _, e := range events[1:] {
			// Strictly-after keeps the earlier scan-order event on ties.
			if e.Timestamp.After(latest.Timestamp) {
				latest = e
			}
		}
		l.recent = append(l.recent, latest)
	}
	sort.SliceStable(l.recent, func(i, j int) bool {
		if !l.recent[i].Timestamp.Equal(l.recent[j].Timestamp) {
			return l.recent[i].Timestamp.After(l.recent[j].Timestamp)
		}
		return l.recent[i].FilePath < l.recent[j].FilePath
	})
	return l
}

// Recent returns the most-recent artifact per path, newest first, optionally
// filtered by type. Existence and size are resolved against the filesystem
// at call time; a missing file is reported, not an error.
func (l *Ledger) Recent(typeFilter models.FileType) []models.Artifact {
	out := make([]models.Artifact, 0, len(l.recent))
	for _, a := range l.recent {
		if typeFilter != "" && a.Type != typeFilter {
			continue
		}
		out = append(out, freshen(a))
	}
	return out
}

// History returns every recorded event for a path, oldest first.
func (l *Ledger) History(path string) []models.Artifact {
	events := l.history[path]
	out := make([]models.Artifact, len(events))
	for i, a := range events {
		out[i] = freshen(a)
	}
	return out
}

// BySession returns the most-recent artifacts produced by one session.
func (l *Ledger) BySession(sessionID string) []models.Artifact {
	var out []models.Artifact
	for _, a := range l.recent {
		if a.SessionID == sessionID {
			out = append(out, freshen(a))
		}
	}
	return out
}

// Stats aggregates ledger counts over the most-recent view.
func (l *Ledger) Stats() models.ArtifactStats {
	stats := models.ArtifactStats{ByType: make(map[models.FileType]int)}
	sessions := make(map[string]bool)
	for _, a := range l.recent {
		stats.Total++
		stats.ByType[a.Type]++
		sessions[a.SessionID] = true
	}
	stats.SessionCount = len(sessions)
	return stats
}

// freshen stamps an artifact copy with the current filesystem state.
func freshen(a models.Artifact) models.Artifact {
	if info, err := os.Stat(a.FilePath); err == nil {
		a.Exists = true
		a.ModTime = info.ModTime()
		a.Size = info.Size()
	} else {
		a.Exists = false
	}
	return a
}
