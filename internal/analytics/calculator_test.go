package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"flowstate/internal/analytics"
	"flowstate/internal/clock"
	"flowstate/internal/model"
)

type fakeSessions struct {
	rows   []model.FocusSession
	err    error
	since  []time.Time
	filter []*uint
}

func (f *fakeSessions) Completed(_ context.Context, userID string, categoryID *uint, since time.Time) ([]model.FocusSession, error) {
	f.since = append(f.since, since)
	f.filter = append(f.filter, categoryID)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.FocusSession, 0, len(f.rows))
	for _, s := range f.rows {
		if s.UserID != userID {
			continue
		}
		if categoryID != nil && (s.CategoryID == nil || *s.CategoryID != *categoryID) {
			continue
		}
		if !since.IsZero() && s.StartTime.Before(since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type fakeCategories struct {
	rows []model.Category
}

func (f fakeCategories) ListByIDs(_ context.Context, userID string, ids []uint) ([]model.Category, error) {
	var out []model.Category
	for _, c := range f.rows {
		if c.UserID != userID {
			continue
		}
		for _, id := range ids {
			if id == c.ID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func TestCalculatorWindowsUseInjectedClock(t *testing.T) {
	t.Parallel()
	src := &fakeSessions{rows: []model.FocusSession{
		session("a", now.Add(-time.Hour), 25, model.StatusCompleted, ptr(1)),
	}}
	calc := analytics.NewCalculator(clock.Fixed(now), src, fakeCategories{})
	ctx := context.Background()
	f := analytics.Filter{UserID: "user-1"}

	daily, err := calc.Daily(ctx, f)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if daily.TotalFocusMinutes != 25 {
		t.Fatalf("expected 25 minutes, got %+v", daily)
	}
	if _, err := calc.Weekly(ctx, f); err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if _, err := calc.Heatmap(ctx, f); err != nil {
		t.Fatalf("heatmap: %v", err)
	}
	if _, err := calc.Distribution(ctx, f); err != nil {
		t.Fatalf("distribution: %v", err)
	}

	want := []time.Time{
		time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC),
		{},
	}
	for i, since := range src.since {
		if !since.Equal(want[i]) {
			t.Fatalf("call %d: expected lower bound %s, got %s", i, want[i], since)
		}
	}
}

func TestCalculatorCategoryFilterDegeneratesDistribution(t *testing.T) {
	t.Parallel()
	src := &fakeSessions{rows: []model.FocusSession{
		session("a", now.Add(-time.Hour), 25, model.StatusCompleted, ptr(1)),
		session("b", now.Add(-time.Hour), 40, model.StatusCompleted, ptr(2)),
	}}
	cats := fakeCategories{rows: []model.Category{
		{ID: 1, UserID: "user-1", Name: "Coding", Color: "#111111"},
		{ID: 2, UserID: "user-1", Name: "Reading", Color: "#222222"},
	}}
	calc := analytics.NewCalculator(clock.Fixed(now), src, cats)
	got, err := calc.Distribution(context.Background(), analytics.Filter{UserID: "user-1", CategoryID: ptr(2)})
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Reading" || got[0].Value != 40 {
		t.Fatalf("expected only Reading/40, got %+v", got)
	}
}

func TestCalculatorPropagatesSourceFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("store unreachable")
	calc := analytics.NewCalculator(clock.Fixed(now), &fakeSessions{err: boom}, fakeCategories{})
	if _, err := calc.Daily(context.Background(), analytics.Filter{UserID: "user-1"}); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}
