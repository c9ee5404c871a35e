package render_test

import (
	"strings"
	"testing"
	"time"

	"flowstate/internal/analytics"
	"flowstate/internal/model"
	"flowstate/internal/render"
	"flowstate/internal/service"
)

func TestHeatmapGridShape(t *testing.T) {
	t.Parallel()

	// 2026-10-11 is a Sunday, so the grid needs no leading padding.
	start := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	var cells []analytics.HeatmapCell
	for i := 0; i < 10; i++ {
		cells = append(cells, analytics.HeatmapCell{Date: analytics.DayKey(start.AddDate(0, 0, i)), Count: i, Level: analytics.Level(i)})
	}

	rows := strings.Split(render.Heatmap(cells), "\n")
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(rows))
	}
	if got := strings.Count(strings.Join(rows, ""), "■"); got != len(cells) {
		t.Fatalf("cells drawn = %d, want %d", got, len(cells))
	}
	if !strings.HasPrefix(rows[1], "Mon") {
		t.Fatalf("row 1 = %q", rows[1])
	}
}

func TestTrendScalesBars(t *testing.T) {
	t.Parallel()

	out := render.Trend([]analytics.DayMinutes{{Date: "2026-10-17", Minutes: 15}, {Date: "2026-10-18", Minutes: 30}})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if strings.Count(lines[0], "█") != 15 || strings.Count(lines[1], "█") != 30 {
		t.Fatalf("bars = %q", lines)
	}
	if !strings.Contains(lines[1], "Sun 10-18") || !strings.HasSuffix(lines[1], "30m") {
		t.Fatalf("line = %q", lines[1])
	}
}

func TestDashboardIncludesEverySection(t *testing.T) {
	t.Parallel()

	note := "write the parser"
	d := &service.Dashboard{
		DailyStats:  analytics.DailyStats{TotalFocusMinutes: 75, SessionCount: 2},
		WeeklyStats: analytics.WeeklyTrend(nil, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)),
		HeatmapData: analytics.Heatmap(nil, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)),
		CategoryDistribution: []analytics.CategoryShare{
			{CategoryID: 1, Name: "Coding", Value: 50, Color: "#6366f1"},
			{CategoryID: 2, Name: "Reading", Value: 25, Color: "#10b981"},
		},
		RecentSessions: []model.FocusSession{{
			ID:              "s1",
			StartTime:       time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
			DurationMinutes: 50,
			Status:          model.StatusCompleted,
			Note:            &note,
		}},
		GeneratedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}

	out := render.Dashboard("demo", d)
	for _, want := range []string{"flowstate · demo", "1h 15m in 2 session(s)", "Last 7 days", "Activity", "Coding", "66%", "write the parser", "COMPLETED"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard lacks %q:\n%s", want, out)
		}
	}
}
