package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"flowstate/internal/analytics"
	"flowstate/internal/model"
)

const trendBarWidth = 12

// ReportService builds the human-readable digest sent to linked chats.
type ReportService struct {
	calc *analytics.Calculator
}

func NewReportService(calc *analytics.Calculator) *ReportService {
	return &ReportService{calc: calc}
}

// DailyDigest summarizes today, the last seven days and the leading category for user.
// The text uses Telegram HTML markup.
func (s *ReportService) DailyDigest(ctx context.Context, user model.User, now time.Time) (string, error) {
	filter := analytics.Filter{UserID: user.ID}
	today, err := s.calc.DailyAt(ctx, filter, now)
	if err != nil {
		return "", err
	}
	week, err := s.calc.WeeklyAt(ctx, filter, now)
	if err != nil {
		return "", err
	}
	shares, err := s.calc.Distribution(ctx, filter)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("📋 <b>Daily focus report</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.UTC().Format("Mon, 02 Jan 2006")))

	b.WriteString("🔥 <b>Today</b>\n")
	if today.SessionCount == 0 {
		b.WriteString("— no completed sessions yet\n")
	} else {
		b.WriteString(fmt.Sprintf("%s across %d session(s)\n", FormatMinutes(today.TotalFocusMinutes), today.SessionCount))
	}

	b.WriteString("\n📈 <b>Last 7 days</b>\n")
	b.WriteString(FormatTrend(week))

	b.WriteString("\n🏷 <b>Top category</b>\n")
	if len(shares) == 0 {
		b.WriteString("— nothing categorized yet\n")
	} else {
		top := shares[0]
		b.WriteString(fmt.Sprintf("%s · %s\n", html.EscapeString(top.Name), FormatMinutes(top.Value)))
	}
	return strings.TrimSpace(b.String()), nil
}

// FormatMinutes renders a duration as "1h 05m" or "25m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// FormatTrend draws one bar per day scaled to the busiest day.
func FormatTrend(days []analytics.DayMinutes) string {
	peak := 0
	for _, d := range days {
		peak = max(peak, d.Minutes)
	}
	var b strings.Builder
	for _, d := range days {
		width := 0
		if peak > 0 {
			width = (d.Minutes*trendBarWidth + peak - 1) / peak
		}
		label := d.Date
		if t, err := time.Parse(time.DateOnly, d.Date); err == nil {
			label = t.Format("Mon 02")
		}
		b.WriteString(fmt.Sprintf("<code>%s %-*s</code> %s\n", label, trendBarWidth, strings.Repeat("█", width), FormatMinutes(d.Minutes)))
	}
	return b.String()
}
