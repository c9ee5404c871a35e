package analytics

import (
	"context"
	"time"

	"flowstate/internal/clock"
	"flowstate/internal/model"
)

// SessionSource is the ledger's read surface: completed sessions of one owner,
// optionally restricted to a category, starting at or after since (zero means unbounded).
type SessionSource interface {
	Completed(ctx context.Context, userID string, categoryID *uint, since time.Time) ([]model.FocusSession, error)
}

// CategorySource resolves category display metadata for one owner.
type CategorySource interface {
	ListByIDs(ctx context.Context, userID string, ids []uint) ([]model.Category, error)
}

// Filter scopes a calculation to one owner and optionally one category.
type Filter struct {
	UserID     string
	CategoryID *uint
}

// Calculator loads sessions for a filter and applies the pure aggregations.
// Each exported method reads the clock exactly once; the *At variants take that instant
// from the caller so a composed response shares one window edge.
type Calculator struct {
	clock      clock.Clock
	sessions   SessionSource
	categories CategorySource
}

func NewCalculator(clk clock.Clock, sessions SessionSource, categories CategorySource) *Calculator {
	return &Calculator{clock: clk, sessions: sessions, categories: categories}
}

func (c *Calculator) Now() time.Time {
	return c.clock.Now().UTC()
}

func (c *Calculator) Daily(ctx context.Context, f Filter) (DailyStats, error) {
	return c.DailyAt(ctx, f, c.Now())
}

func (c *Calculator) DailyAt(ctx context.Context, f Filter, now time.Time) (DailyStats, error) {
	sessions, err := c.sessions.Completed(ctx, f.UserID, f.CategoryID, DayStart(now))
	if err != nil {
		return DailyStats{}, err
	}
	return SummarizeDay(sessions, now), nil
}

func (c *Calculator) Weekly(ctx context.Context, f Filter) ([]DayMinutes, error) {
	return c.WeeklyAt(ctx, f, c.Now())
}

func (c *Calculator) WeeklyAt(ctx context.Context, f Filter, now time.Time) ([]DayMinutes, error) {
	sessions, err := c.sessions.Completed(ctx, f.UserID, f.CategoryID, WeekStart(now))
	if err != nil {
		return nil, err
	}
	return WeeklyTrend(sessions, now), nil
}

func (c *Calculator) Heatmap(ctx context.Context, f Filter) ([]HeatmapCell, error) {
	return c.HeatmapAt(ctx, f, c.Now())
}

func (c *Calculator) HeatmapAt(ctx context.Context, f Filter, now time.Time) ([]HeatmapCell, error) {
	sessions, err := c.sessions.Completed(ctx, f.UserID, f.CategoryID, HeatmapStart(now))
	if err != nil {
		return nil, err
	}
	return Heatmap(sessions, now), nil
}

// Distribution covers all time, so it has no window edge.
func (c *Calculator) Distribution(ctx context.Context, f Filter) ([]CategoryShare, error) {
	sessions, err := c.sessions.Completed(ctx, f.UserID, f.CategoryID, time.Time{})
	if err != nil {
		return nil, err
	}
	categories, err := c.categories.ListByIDs(ctx, f.UserID, categoryIDs(sessions))
	if err != nil {
		return nil, err
	}
	return Distribution(sessions, categories), nil
}
