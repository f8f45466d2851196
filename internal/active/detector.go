// Package active derives the set of currently active sessions. Liveness is
// never a sticky flag: it is recomputed from the liveness pointer and file
// recency on every query.
package active

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/sessiond/pkg/models"
	"github.com/grovetools/sessiond/pkg/paths"
)

// Detector classifies sessions as active or inactive.
type Detector struct {
	claudeDir string
	window    time.Duration
	now       func() time.Time
}

// NewDetector creates a Detector with the given freshness window.
func NewDetector(claudeDir string, window time.Duration) *Detector {
	return &Detector{
		claudeDir: claudeDir,
		window:    window,
		now:       time.Now,
	}
}

// LatestSessionID resolves the liveness pointer: the debug/latest symlink
// names the most recently active session. An unresolvable pointer yields "".
func (d *Detector) LatestSessionID() string {
	latest := filepath.Join(paths.DebugDir(d.claudeDir), "latest")
	target, err := os.Readlink(latest)
	if err != nil {
		return ""
	}
	base := filepath.Base(target)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ActiveSessions returns the set of active session IDs among the given
// sessions. A session is active if the liveness pointer names it, or if its
// transcript (or debug log) was written within the freshness window. The
// pointer only ever names one session, so recency is what covers multiple
// concurrently active terminals.
func (d *Detector) ActiveSessions(sessions []*models.Session) map[string]bool {
	active := make(map[string]bool)
	cutoff := d.now().Add(-d.window)

	known := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		known[s.ID] = true
		if mt, ok := d.lastWrite(s); ok && mt.After(cutoff) {
			active[s.ID] = true
		}
	}

	if latest := d.LatestSessionID(); latest != "" && known[latest] {
		active[latest] = true
	}
	return active
}

// IsActive checks a single session against the same policy as ActiveSessions.
func (d *Detector) IsActive(s *models.Session) bool {
	if s.ID == d.LatestSessionID() {
		return true
	}
	if mt, ok := d.lastWrite(s); ok {
		return mt.After(d.now().Add(-d.window))
	}
	return false
}

// lastWrite returns the most recent write time observable for the session:
// the transcript mtime, or the per-session debug log when that is newer.
func (d *Detector) lastWrite(s *models.Session) (time.Time, bool) {
	var best time.Time
	found := false

	if s.FilePath != "" {
		if info, err := os.Stat(s.FilePath); err == nil {
			best = info.ModTime()
			found = true
		}
	}

	debugLog := filepath.Join(paths.DebugDir(d.claudeDir), s.ID+".txt")
	if info, err := os.Lstat(debugLog); err == nil && info.Mode()&os.ModeSymlink == 0 {
		if !found || info.ModTime().After(best) {
			best = info.ModTime()
			found = true
		}
	}

	return best, found
}
