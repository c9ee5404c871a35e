package analytics

import (
	"time"

	"flowstate/internal/model"
)

// TrendDays is the fixed length of the weekly trend.
const TrendDays = 7

type DayMinutes struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// WeekStart is the lower instant bound of the trend window ending on now's day.
func WeekStart(now time.Time) time.Time {
	return DayStart(now).AddDate(0, 0, -(TrendDays - 1))
}

// WeeklyTrend sums completed minutes per start day over the seven days ending today.
// The result always has TrendDays entries in ascending date order.
func WeeklyTrend(sessions []model.FocusSession, now time.Time) []DayMinutes {
	from := WeekStart(now)
	minutes := make(map[string]int, TrendDays)
	for _, s := range sessions {
		if s.Status != model.StatusCompleted || s.StartTime.Before(from) {
			continue
		}
		minutes[DayKey(s.StartTime)] += s.DurationMinutes
	}

	out := make([]DayMinutes, 0, TrendDays)
	for key := range DayRange(from, now) {
		out = append(out, DayMinutes{Date: key, Minutes: minutes[key]})
	}
	return out
}
