// Package stats surfaces aggregate usage numbers. Claude Code maintains a
// stats-cache.json with richer history than the transcripts alone carry;
// when the cache is absent or unreadable the numbers are derived from the
// indexed sessions instead.
package stats

import (
	"encoding/json"
	"os"

	"github.com/grovetools/sessiond/pkg/models"
)

// cacheFile mirrors the camelCase keys of stats-cache.json.
type cacheFile struct {
	TotalSessions    int                    `json:"totalSessions"`
	TotalMessages    int                    `json:"totalMessages"`
	DailyActivity    []models.DailyActivity `json:"dailyActivity"`
	ModelUsage       map[string]int         `json:"modelUsage"`
	FirstSessionDate string                 `json:"firstSessionDate"`
}

// Collect builds a stats snapshot, preferring the cache file when it can
// be read and falling back to the given sessions otherwise. The active
// count always reflects the live index, never the cache.
func Collect(cachePath string, sessions []*models.Session) models.StatsSnapshot {
	snap := fromCache(cachePath)
	if snap == nil {
		snap = derive(sessions)
	}
	for _, s := range sessions {
		if s.IsActive {
			snap.ActiveSessions++
		}
	}
	return *snap
}

func fromCache(path string) *models.StatsSnapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cache cacheFile
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil
	}
	return &models.StatsSnapshot{
		TotalSessions:    cache.TotalSessions,
		TotalMessages:    cache.TotalMessages,
		DailyActivity:    cache.DailyActivity,
		ModelUsage:       cache.ModelUsage,
		FirstSessionDate: cache.FirstSessionDate,
		FromCache:        true,
	}
}

func derive(sessions []*models.Session) *models.StatsSnapshot {
	snap := &models.StatsSnapshot{
		TotalSessions: len(sessions),
		ModelUsage:    make(map[string]int),
	}
	var first string
	for _, s := range sessions {
		snap.TotalMessages += s.MessageCount
		snap.TotalTokens += s.Usage.InputTokens + s.Usage.OutputTokens
		for _, model := range s.ModelsUsed {
			snap.ModelUsage[model]++
		}
		if !s.StartTime.IsZero() {
			day := s.StartTime.Format("2006-01-02")
			if first == "" || day < first {
				first = day
			}
		}
	}
	snap.FirstSessionDate = first
	if len(snap.ModelUsage) == 0 {
		snap.ModelUsage = nil
	}
	return snap
}
