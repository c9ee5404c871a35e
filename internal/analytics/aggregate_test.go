package analytics_test

import (
	"testing"
	"time"

	"flowstate/internal/analytics"
	"flowstate/internal/model"
)

var now = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

func session(id string, start time.Time, minutes int, status model.SessionStatus, categoryID *uint) model.FocusSession {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return model.FocusSession{
		ID:              id,
		UserID:          "user-1",
		CategoryID:      categoryID,
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: minutes,
		Status:          status,
	}
}

func ptr(v uint) *uint { return &v }

func TestSummarizeDaySingleSession(t *testing.T) {
	t.Parallel()
	sessions := []model.FocusSession{
		session("a", now.Add(-30*time.Minute), 25, model.StatusCompleted, ptr(1)),
		session("b", now.Add(-24*time.Hour), 50, model.StatusCompleted, ptr(1)),
	}
	got := analytics.SummarizeDay(sessions, now)
	if got.TotalFocusMinutes != 25 || got.SessionCount != 1 {
		t.Fatalf("expected {25 1}, got %+v", got)
	}
}

func TestSummarizeDayEmptyIsZero(t *testing.T) {
	t.Parallel()
	got := analytics.SummarizeDay(nil, now)
	if got != (analytics.DailyStats{}) {
		t.Fatalf("expected zero stats, got %+v", got)
	}
}

func TestWeeklyTrendZeroFills(t *testing.T) {
	t.Parallel()
	sessions := []model.FocusSession{
		session("today", now.Add(-2*time.Hour), 30, model.StatusCompleted, nil),
		session("day3", now.AddDate(0, 0, -3), 10, model.StatusCompleted, nil),
		session("old", now.AddDate(0, 0, -7), 99, model.StatusCompleted, nil),
	}
	got := analytics.WeeklyTrend(sessions, now)
	if len(got) != analytics.TrendDays {
		t.Fatalf("expected 7 entries, got %d", len(got))
	}
	want := map[string]int{"2026-10-18": 30, "2026-10-15": 10}
	for i, entry := range got {
		if i > 0 && entry.Date <= got[i-1].Date {
			t.Fatalf("dates not strictly ascending at %d: %v", i, got)
		}
		if entry.Minutes != want[entry.Date] {
			t.Fatalf("day %s: expected %d minutes, got %d", entry.Date, want[entry.Date], entry.Minutes)
		}
	}
	if got[0].Date != "2026-10-12" || got[6].Date != "2026-10-18" {
		t.Fatalf("unexpected window %s..%s", got[0].Date, got[6].Date)
	}
}

func TestWeeklyTrendShapeHoldsForAnyInstant(t *testing.T) {
	t.Parallel()
	base := time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 400; i += 7 {
		at := base.AddDate(0, 0, i).Add(time.Duration(i) * time.Hour)
		got := analytics.WeeklyTrend(nil, at)
		if len(got) != analytics.TrendDays {
			t.Fatalf("at %s: expected 7 entries, got %d", at, len(got))
		}
		if got[6].Date != analytics.DayKey(at) {
			t.Fatalf("at %s: last entry should be today, got %s", at, got[6].Date)
		}
	}
}

func TestLevelSteps(t *testing.T) {
	t.Parallel()
	cases := map[int]int{0: 0, 1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 6: 3, 7: 4, 42: 4}
	for count, want := range cases {
		if got := analytics.Level(count); got != want {
			t.Fatalf("Level(%d): expected %d, got %d", count, want, got)
		}
	}
}

func TestHeatmapCountsAndLevels(t *testing.T) {
	t.Parallel()
	busy := now.AddDate(0, 0, -2)
	sessions := []model.FocusSession{
		session("1", busy, 25, model.StatusCompleted, nil),
		session("2", busy.Add(time.Hour), 25, model.StatusCompleted, nil),
		session("3", busy.Add(2*time.Hour), 25, model.StatusCompleted, nil),
		session("x", busy.Add(3*time.Hour), 25, model.StatusAborted, nil),
	}
	got := analytics.Heatmap(sessions, now)
	if len(got) != analytics.HeatmapSpanDays+1 {
		t.Fatalf("expected %d cells, got %d", analytics.HeatmapSpanDays+1, len(got))
	}
	if got[0].Date != "2025-10-18" || got[len(got)-1].Date != "2026-10-18" {
		t.Fatalf("unexpected window %s..%s", got[0].Date, got[len(got)-1].Date)
	}
	for i, cell := range got {
		if i > 0 && cell.Date <= got[i-1].Date {
			t.Fatalf("dates not strictly ascending at %d", i)
		}
		if cell.Level != analytics.Level(cell.Count) {
			t.Fatalf("cell %s: level %d does not match count %d", cell.Date, cell.Level, cell.Count)
		}
		switch cell.Date {
		case analytics.DayKey(busy):
			if cell.Count != 3 || cell.Level != 2 {
				t.Fatalf("busy day: expected {3 2}, got %+v", cell)
			}
		default:
			if cell.Count != 0 || cell.Level != 0 {
				t.Fatalf("idle day %s: expected zero cell, got %+v", cell.Date, cell)
			}
		}
	}
}

func TestHeatmapLengthAcrossLeapYear(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	got := analytics.Heatmap(nil, at)
	if len(got) != 366 {
		t.Fatalf("expected 366 cells, got %d", len(got))
	}
	if got[0].Date != "2023-03-02" {
		t.Fatalf("expected window to start 2023-03-02, got %s", got[0].Date)
	}
}

func TestDistributionGroupsByCategory(t *testing.T) {
	t.Parallel()
	coding := model.Category{ID: 1, Name: "Coding", Color: "#6366f1"}
	reading := model.Category{ID: 2, Name: "Reading", Color: "#10b981"}
	idle := model.Category{ID: 3, Name: "Idle", Color: "#000000"}
	sessions := []model.FocusSession{
		session("1", now.AddDate(0, -2, 0), 50, model.StatusCompleted, ptr(1)),
		session("2", now.AddDate(-1, 0, 0), 25, model.StatusCompleted, ptr(1)),
		session("3", now.Add(-time.Hour), 20, model.StatusCompleted, ptr(2)),
		session("4", now.Add(-time.Hour), 90, model.StatusAborted, ptr(2)),
		session("5", now.Add(-time.Hour), 15, model.StatusCompleted, nil),
	}
	got := analytics.Distribution(sessions, []model.Category{coding, reading, idle})
	if len(got) != 2 {
		t.Fatalf("expected two categories, got %+v", got)
	}
	if got[0].Name != "Coding" || got[0].Value != 75 || got[0].Color != "#6366f1" {
		t.Fatalf("unexpected first share %+v", got[0])
	}
	if got[1].Name != "Reading" || got[1].Value != 20 {
		t.Fatalf("unexpected second share %+v", got[1])
	}
}

func TestAbortedSessionsNeverCount(t *testing.T) {
	t.Parallel()
	sessions := []model.FocusSession{
		session("x", now.Add(-time.Hour), 500, model.StatusAborted, ptr(1)),
	}
	if got := analytics.SummarizeDay(sessions, now); got.SessionCount != 0 || got.TotalFocusMinutes != 0 {
		t.Fatalf("aborted session counted in daily stats: %+v", got)
	}
	for _, day := range analytics.WeeklyTrend(sessions, now) {
		if day.Minutes != 0 {
			t.Fatalf("aborted session counted in trend: %+v", day)
		}
	}
	for _, cell := range analytics.Heatmap(sessions, now) {
		if cell.Count != 0 {
			t.Fatalf("aborted session counted in heatmap: %+v", cell)
		}
	}
	if got := analytics.Distribution(sessions, []model.Category{{ID: 1, Name: "A"}}); len(got) != 0 {
		t.Fatalf("aborted session counted in distribution: %+v", got)
	}
}
