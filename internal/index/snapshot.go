// Package index builds immutable, queryable snapshots over the sessions
// produced by a scan pass. A snapshot never changes after construction;
// readers hold it for as long as they like while newer generations are
// published behind them.
package index

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/internal/artifact"
	"github.com/grovetools/sessiond/pkg/models"
)

// Snapshot is one generation of the queryable index. It carries no active
// flags of its own: liveness is derived, so queries pass in the active set
// computed at call time and the snapshot stamps result views with it.
type Snapshot struct {
	generation uint64
	builtAt    time.Time
	sessions   []*models.Session // sorted by LastActivity, newest first
	byID       map[string]*models.Session
	artifacts  *artifact.Ledger
}

// Build constructs a snapshot from the sessions of one scan pass.
func Build(generation uint64, sessions []*models.Session) *Snapshot {
	snap := &Snapshot{
		generation: generation,
		builtAt:    time.Now(),
		sessions:   make([]*models.Session, len(sessions)),
		byID:       make(map[string]*models.Session, len(sessions)),
	}
	copy(snap.sessions, sessions)
	for _, s := range snap.sessions {
		snap.byID[s.ID] = s
	}
	sort.SliceStable(snap.sessions, func(i, j int) bool {
		a, b := snap.sessions[i], snap.sessions[j]
		if !a.LastActivity.Equal(b.LastActivity) {
			return a.LastActivity.After(b.LastActivity)
		}
		return a.ID < b.ID
	})
	snap.artifacts = artifact.Extract(snap.sessions)
	return snap
}

// Empty returns a zero-generation snapshot, used before the first scan.
func Empty() *Snapshot {
	return Build(0, nil)
}

// Generation returns the monotonically increasing snapshot counter.
func (s *Snapshot) Generation() uint64 { return s.generation }

// BuiltAt returns when this snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Len returns the total session count.
func (s *Snapshot) Len() int { return len(s.sessions) }

// Sessions returns the indexed sessions, newest-activity-first. The slice
// and its sessions are shared with the snapshot and must not be mutated;
// it exists so callers can derive the active set for a query.
func (s *Snapshot) Sessions() []*models.Session { return s.sessions }

// Artifacts exposes the artifact ledger for this generation.
func (s *Snapshot) Artifacts() *artifact.Ledger { return s.artifacts }

// stamp returns a view of sess with the query-time active flag applied,
// copying only when it differs from the stored value so the snapshot
// itself is never mutated.
func stamp(sess *models.Session, active map[string]bool) *models.Session {
	if sess.IsActive == active[sess.ID] {
		return sess
	}
	out := *sess
	out.IsActive = active[sess.ID]
	return &out
}

// Session returns one session by ID, stamped with the given active set.
func (s *Snapshot) Session(id string, active map[string]bool) (*models.Session, error) {
	sess, ok := s.byID[id]
	if !ok {
		return nil, errors.SessionNotFound(id)
	}
	return stamp(sess, active), nil
}

// Page describes one page of a session listing.
type Page struct {
	Sessions []*models.Session `json:"sessions"`
	Total    int               `json:"total"`
	Offset   int               `json:"offset"`
	Limit    int               `json:"limit"`
}

// ListOptions filters and paginates a session listing.
type ListOptions struct {
	Offset     int
	Limit      int
	ActiveOnly bool
	Project    string // substring match on the decoded project path
}

// List returns sessions newest-activity-first, stamped with the active set
// the caller derived for this query. Ordering is identical across snapshots
// whose underlying data has not changed, so pagination is stable for a
// quiescent source.
func (s *Snapshot) List(opts ListOptions, active map[string]bool) Page {
	filtered := s.sessions
	if opts.ActiveOnly || opts.Project != "" {
		filtered = make([]*models.Session, 0, len(s.sessions))
		needle := strings.ToLower(opts.Project)
		for _, sess := range s.sessions {
			if opts.ActiveOnly && !active[sess.ID] {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(sess.ProjectPath), needle) {
				continue
			}
			filtered = append(filtered, sess)
		}
	}

	page := Page{Total: len(filtered), Offset: opts.Offset, Limit: opts.Limit}
	if opts.Offset >= len(filtered) {
		page.Sessions = []*models.Session{}
		return page
	}
	end := len(filtered)
	if opts.Limit > 0 && opts.Offset+opts.Limit < end {
		end = opts.Offset + opts.Limit
	}
	page.Sessions = make([]*models.Session, end-opts.Offset)
	for i, sess := range filtered[opts.Offset:end] {
		page.Sessions[i] = stamp(sess, active)
	}
	return page
}

// Active returns the sessions in the given active set, newest-activity-first.
func (s *Snapshot) Active(active map[string]bool) []*models.Session {
	var out []*models.Session
	for _, sess := range s.sessions {
		if active[sess.ID] {
			out = append(out, stamp(sess, active))
		}
	}
	return out
}

// Match is one search hit with a short context excerpt.
type Match struct {
	Session *models.Session `json:"session"`
	Field   string          `json:"field"` // project, summary, message or thinking
	Excerpt string          `json:"excerpt"`
}

// excerptRadius bounds how much text surrounds the matched term.
const excerptRadius = 60

// SearchOptions tunes search behavior.
type SearchOptions struct {
	// ExcludeThinking leaves assistant reasoning text out of the search.
	ExcludeThinking bool
}

// Search performs a case-insensitive substring search over project paths,
// summaries and message content, including assistant thinking unless the
// caller excludes it. At most one match per session is returned,
// preferring the most specific field. Results keep the listing order and
// are stamped with the caller's active set.
func (s *Snapshot) Search(query string, opts SearchOptions, active map[string]bool) []Match {
	needle := strings.TrimSpace(query)
	if needle == "" {
		return nil
	}

	var out []Match
	for _, sess := range s.sessions {
		if m, ok := matchSession(sess, needle, opts); ok {
			m.Session = stamp(m.Session, active)
			out = append(out, m)
		}
	}
	return out
}

func matchSession(sess *models.Session, needle string, opts SearchOptions) (Match, bool) {
	for _, msg := range sess.Messages {
		if start, end := indexFold(msg.Content, needle); start >= 0 {
			return Match{Session: sess, Field: "message", Excerpt: excerpt(msg.Content, start, end)}, true
		}
		if opts.ExcludeThinking || msg.Thinking == "" {
			continue
		}
		if start, end := indexFold(msg.Thinking, needle); start >= 0 {
			return Match{Session: sess, Field: "thinking", Excerpt: excerpt(msg.Thinking, start, end)}, true
		}
	}
	for _, summary := range sess.Summaries {
		if start, end := indexFold(summary, needle); start >= 0 {
			return Match{Session: sess, Field: "summary", Excerpt: excerpt(summary, start, end)}, true
		}
	}
	if start, _ := indexFold(sess.ProjectPath, needle); start >= 0 {
		return Match{Session: sess, Field: "project", Excerpt: sess.ProjectPath}, true
	}
	return Match{}, false
}

// indexFold returns the byte range in text of the first case-insensitive
// match of needle, or (-1, -1). It folds rune by rune so the returned
// offsets are valid for text itself; an index found in strings.ToLower's
// copy can misalign when lowering changes a rune's byte length.
func indexFold(text, needle string) (int, int) {
	nr := []rune(needle)
	for i := range nr {
		nr[i] = unicode.ToLower(nr[i])
	}
	if len(nr) == 0 {
		return -1, -1
	}

	tr := []rune(text)
	offs := make([]int, len(tr)+1)
	pos := 0
	for i, r := range tr {
		offs[i] = pos
		pos += utf8.RuneLen(r)
	}
	offs[len(tr)] = pos

	for i := 0; i+len(nr) <= len(tr); i++ {
		j := 0
		for j < len(nr) && unicode.ToLower(tr[i+j]) == nr[j] {
			j++
		}
		if j == len(nr) {
			return offs[i], offs[i+len(nr)]
		}
	}
	return -1, -1
}

// excerpt cuts a window around the match byte range, collapsing newlines so
// the result renders on one line. Window edges are pulled back to rune
// boundaries before slicing.
func excerpt(text string, start, end int) string {
	s := start - excerptRadius
	if s < 0 {
		s = 0
	}
	for s > 0 && !utf8.RuneStart(text[s]) {
		s--
	}
	e := end + excerptRadius
	if e > len(text) {
		e = len(text)
	}
	for e < len(text) && !utf8.RuneStart(text[e]) {
		e++
	}

	out := strings.Join(strings.Fields(text[s:e]), " ")
	if s > 0 {
		out = "…" + out
	}
	if e < len(text) {
		out = out + "…"
	}
	return out
}
