package analytics

import (
	"time"

	"flowstate/internal/model"
)

type DailyStats struct {
	TotalFocusMinutes int `json:"total_focus_minutes"`
	SessionCount      int `json:"session_count"`
}

// SummarizeDay totals completed sessions that started in [DayStart(now), now).
func SummarizeDay(sessions []model.FocusSession, now time.Time) DailyStats {
	from := DayStart(now)
	var stats DailyStats
	for _, s := range sessions {
		if s.Status != model.StatusCompleted {
			continue
		}
		if s.StartTime.Before(from) || !s.StartTime.Before(now) {
			continue
		}
		stats.TotalFocusMinutes += s.DurationMinutes
		stats.SessionCount++
	}
	return stats
}
