package analytics

import (
	"time"

	"flowstate/internal/model"
)

// HeatmapSpanDays is how far back the heatmap reaches. Both ends are included, so the
// heatmap carries HeatmapSpanDays+1 entries.
const HeatmapSpanDays = 365

type HeatmapCell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// HeatmapStart is the first instant counted by the heatmap ending on now's day.
func HeatmapStart(now time.Time) time.Time {
	return DayStart(now).AddDate(0, 0, -HeatmapSpanDays)
}

// Level buckets a per-day session count into intensity 0..4.
func Level(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return 1
	case count <= 4:
		return 2
	case count <= 6:
		return 3
	default:
		return 4
	}
}

// Heatmap counts completed sessions per start day from HeatmapStart(now) through now's day.
func Heatmap(sessions []model.FocusSession, now time.Time) []HeatmapCell {
	from := HeatmapStart(now)
	counts := make(map[string]int)
	for _, s := range sessions {
		if s.Status != model.StatusCompleted || s.StartTime.Before(from) {
			continue
		}
		counts[DayKey(s.StartTime)]++
	}

	out := make([]HeatmapCell, 0, HeatmapSpanDays+1)
	for key := range DayRange(from, now) {
		count := counts[key]
		out = append(out, HeatmapCell{Date: key, Count: count, Level: Level(count)})
	}
	return out
}
