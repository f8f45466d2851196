package models

// DailyActivity is one day's message volume from the stats cache.
type DailyActivity struct {
	Date     string `json:"date"`
	Messages int    `json:"messages"`
	Sessions int    `json:"sessions"`
}

// StatsSnapshot holds externally maintained aggregate counters read
// opportunistically from stats-cache.json. It is never authoritative over
// per-session data the engine computed directly.
type StatsSnapshot struct {
	TotalSessions    int             `json:"total_sessions"`
	TotalMessages    int             `json:"total_messages"`
	TotalTokens      int             `json:"total_tokens,omitempty"`
	ActiveSessions   int             `json:"active_sessions"`
	DailyActivity    []DailyActivity `json:"daily_activity,omitempty"`
	ModelUsage       map[string]int  `json:"model_usage,omitempty"`
	FirstSessionDate string          `json:"first_session_date,omitempty"`

	// FromCache reports whether the numbers came from the cache file or were
	// derived from the in-memory index.
	FromCache bool `json:"from_cache"`
}
