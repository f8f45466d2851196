package index

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sderr "github.com/grovetools/sessiond/errors"
	"github.com/grovetools/sessiond/pkg/models"
)

var indexBase = time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

func makeSessions(n int) []*models.Session {
	out := make([]*models.Session, n)
	for i := 0; i < n; i++ {
		out[i] = &models.Session{
			ID:           fmt.Sprintf("sess-%02d", i),
			ProjectPath:  "/home/user/proj",
			LastActivity: indexBase.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestBuildOrdersByActivity(t *testing.T) {
	snap := Build(1, makeSessions(3))

	page := snap.List(ListOptions{}, nil)
	require.Len(t, page.Sessions, 3)
	assert.Equal(t, "sess-02", page.Sessions[0].ID)
	assert.Equal(t, "sess-00", page.Sessions[2].ID)
	assert.Equal(t, uint64(1), snap.Generation())
}

func TestSessionLookup(t *testing.T) {
	snap := Build(1, makeSessions(2))

	s, err := snap.Session("sess-01", nil)
	require.NoError(t, err)
	assert.Equal(t, "sess-01", s.ID)

	_, err = snap.Session("nope", nil)
	require.Error(t, err)
	assert.Equal(t, sderr.ErrCodeSessionNotFound, sderr.GetCode(err))
}

func TestListPagination(t *testing.T) {
	snap := Build(1, makeSessions(5))

	first := snap.List(ListOptions{Limit: 2}, nil)
	require.Len(t, first.Sessions, 2)
	assert.Equal(t, 5, first.Total)
	assert.Equal(t, "sess-04", first.Sessions[0].ID)

	second := snap.List(ListOptions{Offset: 2, Limit: 2}, nil)
	require.Len(t, second.Sessions, 2)
	assert.Equal(t, "sess-02", second.Sessions[0].ID)

	last := snap.List(ListOptions{Offset: 4, Limit: 2}, nil)
	require.Len(t, last.Sessions, 1)

	beyond := snap.List(ListOptions{Offset: 10, Limit: 2}, nil)
	assert.Empty(t, beyond.Sessions)
	assert.Equal(t, 5, beyond.Total)
}

func TestPaginationStableAcrossGenerations(t *testing.T) {
	sessions := makeSessions(6)

	a := Build(1, sessions)
	b := Build(2, sessions)

	for offset := 0; offset < 6; offset += 2 {
		pa := a.List(ListOptions{Offset: offset, Limit: 2}, nil)
		pb := b.List(ListOptions{Offset: offset, Limit: 2}, nil)
		require.Len(t, pb.Sessions, len(pa.Sessions))
		for i := range pa.Sessions {
			assert.Equal(t, pa.Sessions[i].ID, pb.Sessions[i].ID)
		}
	}
}

func TestActiveFilter(t *testing.T) {
	sessions := makeSessions(4)
	active := map[string]bool{"sess-01": true, "sess-03": true}

	snap := Build(1, sessions)

	got := snap.Active(active)
	require.Len(t, got, 2)
	assert.Equal(t, "sess-03", got[0].ID)
	assert.True(t, got[0].IsActive)

	page := snap.List(ListOptions{ActiveOnly: true}, active)
	assert.Equal(t, 2, page.Total)
}

// Liveness is supplied per query, so the same snapshot must answer
// differently as the active set changes; no status is baked in at build
// time, and stamping one query must not leak into the next.
func TestActiveComputedPerQuery(t *testing.T) {
	snap := Build(1, makeSessions(2))

	first := snap.Active(map[string]bool{"sess-01": true})
	require.Len(t, first, 1)
	assert.Equal(t, "sess-01", first[0].ID)
	assert.True(t, first[0].IsActive)

	// The session's window has elapsed: the very next query sees it gone.
	assert.Empty(t, snap.Active(map[string]bool{}))

	s, err := snap.Session("sess-01", nil)
	require.NoError(t, err)
	assert.False(t, s.IsActive)

	page := snap.List(ListOptions{}, map[string]bool{"sess-00": true})
	for _, got := range page.Sessions {
		assert.Equal(t, got.ID == "sess-00", got.IsActive)
	}
}

func TestProjectFilter(t *testing.T) {
	sessions := makeSessions(3)
	sessions[1].ProjectPath = "/home/user/billing/api"

	snap := Build(1, sessions)

	page := snap.List(ListOptions{Project: "billing"}, nil)
	require.Len(t, page.Sessions, 1)
	assert.Equal(t, "sess-01", page.Sessions[0].ID)
}

func TestSearchFields(t *testing.T) {
	sessions := makeSessions(4)
	sessions[0].Messages = []models.Message{{Role: models.RoleUser, Content: "please fix the RateLimiter token bucket"}}
	sessions[1].Summaries = []string{"Debugging the rate limiter"}
	sessions[2].ProjectPath = "/home/user/ratelimit"
	sessions[3].Messages = []models.Message{{Role: models.RoleAssistant, Thinking: "the rate limiter window resets here"}}

	snap := Build(1, sessions)

	got := snap.Search("rate limiter", SearchOptions{}, nil)
	require.Len(t, got, 2)
	// Listing order: sess-03 (thinking) before sess-01 (summary).
	assert.Equal(t, "sess-03", got[0].Session.ID)
	assert.Equal(t, "thinking", got[0].Field)
	assert.Equal(t, "sess-01", got[1].Session.ID)
	assert.Equal(t, "summary", got[1].Field)

	noThinking := snap.Search("rate limiter", SearchOptions{ExcludeThinking: true}, nil)
	require.Len(t, noThinking, 1)
	assert.Equal(t, "sess-01", noThinking[0].Session.ID)

	caseFold := snap.Search("RATELIMITER", SearchOptions{}, nil)
	require.Len(t, caseFold, 1)
	assert.Equal(t, "message", caseFold[0].Field)

	byProject := snap.Search("ratelimit", SearchOptions{}, nil)
	require.NotEmpty(t, byProject)

	assert.Empty(t, snap.Search("no such phrase anywhere", SearchOptions{}, nil))
	assert.Empty(t, snap.Search("   ", SearchOptions{}, nil))
}

func TestSearchExcerptBounded(t *testing.T) {
	long := make([]byte, 0, 500)
	for i := 0; i < 40; i++ {
		long = append(long, []byte("padding text ")...)
	}
	content := string(long) + "needle phrase" + string(long)

	sessions := makeSessions(1)
	sessions[0].Messages = []models.Message{{Role: models.RoleUser, Content: content}}

	snap := Build(1, sessions)
	got := snap.Search("needle phrase", SearchOptions{}, nil)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Excerpt, "needle phrase")
	assert.Less(t, len(got[0].Excerpt), 200)
}

// Lowercasing İ (U+0130) grows it by a byte, so a match offset found in a
// lowered copy drifts off the original text. The excerpt must come from the
// original bytes around the real match, cut on rune boundaries.
func TestSearchExcerptNonASCII(t *testing.T) {
	content := strings.Repeat("İ", 120) + " the window handle leaks on resize"

	sessions := makeSessions(1)
	sessions[0].Messages = []models.Message{{Role: models.RoleUser, Content: content}}

	snap := Build(1, sessions)
	got := snap.Search("WINDOW HANDLE", SearchOptions{}, nil)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Excerpt, "window handle")
	assert.True(t, utf8.ValidString(got[0].Excerpt))
}

func TestEmptySnapshot(t *testing.T) {
	snap := Empty()
	assert.Equal(t, uint64(0), snap.Generation())
	assert.Zero(t, snap.Len())
	assert.Empty(t, snap.List(ListOptions{}, nil).Sessions)
	assert.NotNil(t, snap.Artifacts())
}
