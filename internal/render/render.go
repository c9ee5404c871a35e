// Package render draws a dashboard for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"flowstate/internal/analytics"
	"flowstate/internal/model"
	"flowstate/internal/service"
)

var (
	subtle = lipgloss.Color("#a6adc8")
	accent = lipgloss.Color("#74c7ec")

	// GitHub-style contribution greens, indexed by heatmap level.
	levelColors = [5]lipgloss.Color{"#2d333b", "#0e4429", "#006d32", "#26a641", "#39d353"}

	titleStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(subtle)
	paneStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475a")).
			Padding(0, 1)
)

const (
	heatCell  = "■"
	barGlyph  = "█"
	barWidth  = 30
	noteWidth = 40
)

// Dashboard renders every section of d, top to bottom.
func Dashboard(username string, d *service.Dashboard) string {
	header := titleStyle.Render("flowstate · "+username) + "  " +
		mutedStyle.Render(d.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	today := paneStyle.Render(fmt.Sprintf("%s\n%s in %d session(s)",
		titleStyle.Render("Today"), service.FormatMinutes(d.DailyStats.TotalFocusMinutes), d.DailyStats.SessionCount))

	sections := []string{
		header,
		today,
		paneStyle.Render(titleStyle.Render("Last 7 days") + "\n" + Trend(d.WeeklyStats)),
		paneStyle.Render(titleStyle.Render("Activity") + "\n" + Heatmap(d.HeatmapData)),
		paneStyle.Render(titleStyle.Render("Categories") + "\n" + Distribution(d.CategoryDistribution)),
		paneStyle.Render(titleStyle.Render("Recent sessions") + "\n" + Recent(d.RecentSessions)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Trend draws one bar per day scaled to the busiest day.
func Trend(days []analytics.DayMinutes) string {
	peak := 0
	for _, d := range days {
		peak = max(peak, d.Minutes)
	}
	bar := lipgloss.NewStyle().Foreground(levelColors[4])
	lines := make([]string, 0, len(days))
	for _, d := range days {
		width := 0
		if peak > 0 {
			width = (d.Minutes*barWidth + peak - 1) / peak
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			mutedStyle.Render(dayLabel(d.Date)),
			bar.Render(padRight(strings.Repeat(barGlyph, width), barWidth)),
			service.FormatMinutes(d.Minutes)))
	}
	return strings.Join(lines, "\n")
}

// Heatmap lays cells out as weekday rows by week columns, Sunday first.
func Heatmap(cells []analytics.HeatmapCell) string {
	if len(cells) == 0 {
		return mutedStyle.Render("no data")
	}
	first, err := time.Parse(time.DateOnly, cells[0].Date)
	if err != nil {
		return mutedStyle.Render("no data")
	}
	pad := int(first.Weekday())
	weeks := (pad + len(cells) + 6) / 7

	grid := make([][]string, 7)
	for row := range grid {
		grid[row] = make([]string, weeks)
		for col := range grid[row] {
			grid[row][col] = " "
		}
	}
	for i, cell := range cells {
		slot := pad + i
		level := min(max(cell.Level, 0), 4)
		grid[slot%7][slot/7] = lipgloss.NewStyle().Foreground(levelColors[level]).Render(heatCell)
	}

	labels := [7]string{"   ", "Mon", "   ", "Wed", "   ", "Fri", "   "}
	rows := make([]string, 7)
	for row := range grid {
		rows[row] = mutedStyle.Render(labels[row]) + " " + strings.Join(grid[row], "")
	}
	return strings.Join(rows, "\n")
}

func Distribution(shares []analytics.CategoryShare) string {
	if len(shares) == 0 {
		return mutedStyle.Render("no categorized sessions")
	}
	total := 0
	nameWidth := 0
	for _, s := range shares {
		total += s.Value
		nameWidth = max(nameWidth, lipgloss.Width(s.Name))
	}
	lines := make([]string, 0, len(shares))
	for _, s := range shares {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(barGlyph)
		pct := 0
		if total > 0 {
			pct = s.Value * 100 / total
		}
		lines = append(lines, fmt.Sprintf("%s %s %8s %3d%%",
			swatch, padRight(s.Name, nameWidth), service.FormatMinutes(s.Value), pct))
	}
	return strings.Join(lines, "\n")
}

func Recent(sessions []model.FocusSession) string {
	if len(sessions) == 0 {
		return mutedStyle.Render("no sessions yet")
	}
	lines := make([]string, 0, len(sessions))
	for _, s := range sessions {
		note := ""
		if s.Note != nil {
			note = " " + mutedStyle.Render(truncate(*s.Note, noteWidth))
		}
		lines = append(lines, fmt.Sprintf("%s %-9s %6s%s",
			s.StartTime.UTC().Format("Jan 02 15:04"), s.Status, service.FormatMinutes(s.DurationMinutes), note))
	}
	return strings.Join(lines, "\n")
}

func dayLabel(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("Mon 01-02")
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n-1]) + "…"
}
