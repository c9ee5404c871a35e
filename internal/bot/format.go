package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"flowstate/internal/analytics"
	"flowstate/internal/model"
	"flowstate/internal/service"
)

// logRequest is a parsed "/log <minutes> [category]".
type logRequest struct {
	Minutes  int
	Category string
}

func parseLogArgs(args string) (logRequest, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return logRequest{}, errors.New("minutes are required")
	}
	minutes, err := parseMinutes(fields[0])
	if err != nil {
		return logRequest{}, err
	}
	return logRequest{Minutes: minutes, Category: strings.Join(fields[1:], " ")}, nil
}

// parseMinutes accepts "25" or "25m".
func parseMinutes(raw string) (int, error) {
	raw = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "m")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("minutes must be a positive number")
	}
	return n, nil
}

func parseLinkArgs(args string) (string, string, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", "", errors.New("expected username and password")
	}
	return fields[0], fields[1], nil
}

func formatToday(stats analytics.DailyStats) string {
	if stats.SessionCount == 0 {
		return "📊 <b>Today</b>\n— no completed sessions yet"
	}
	return fmt.Sprintf("📊 <b>Today</b>\n%s across %d session(s)",
		service.FormatMinutes(stats.TotalFocusMinutes), stats.SessionCount)
}

func formatCategories(categories []model.Category, shares []analytics.CategoryShare) string {
	if len(categories) == 0 {
		return "No categories yet. Create them in the app."
	}
	totals := make(map[uint]int, len(shares))
	for _, share := range shares {
		totals[share.CategoryID] = share.Value
	}
	var b strings.Builder
	b.WriteString("📂 <b>Categories</b>\n")
	for _, category := range categories {
		b.WriteString(fmt.Sprintf("• %s · %s\n", escape(strings.TrimSpace(category.Name)), service.FormatMinutes(totals[category.ID])))
	}
	return strings.TrimSpace(b.String())
}

func escape(s string) string {
	return html.EscapeString(s)
}
