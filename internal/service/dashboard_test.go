package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"flowstate/internal/analytics"
	"flowstate/internal/model"
	"flowstate/internal/service"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]map[string][]byte
	gens    map[string]int64
	gets    int
	hits    int

	// beforePut runs once, ahead of the next Put, to interleave a mutation with a build.
	beforePut func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries: make(map[string]map[string][]byte),
		gens:    make(map[string]int64),
	}
}

func (m *memoryCache) Generation(_ context.Context, owner string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[owner], nil
}

func (m *memoryCache) Get(_ context.Context, owner, field string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	raw, ok := m.entries[owner][field]
	if !ok {
		return nil, nil
	}
	m.hits++
	return raw, nil
}

func (m *memoryCache) Put(_ context.Context, owner, field string, gen int64, payload []byte) error {
	if hook := m.beforePut; hook != nil {
		m.beforePut = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[owner] != gen {
		return nil
	}
	if m.entries[owner] == nil {
		m.entries[owner] = make(map[string][]byte)
	}
	m.entries[owner][field] = payload
	return nil
}

func (m *memoryCache) Invalidate(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[owner]++
	delete(m.entries, owner)
	return nil
}

func TestDashboardForNewUserIsZeroFilled(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	owner := e.user(t, "alice")
	dash := service.NewDashboardService(e.calc, e.sessions, nil)

	got, err := dash.Build(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got.DailyStats != (analytics.DailyStats{}) {
		t.Fatalf("DailyStats = %+v", got.DailyStats)
	}
	if len(got.WeeklyStats) != analytics.TrendDays {
		t.Fatalf("len(WeeklyStats) = %d", len(got.WeeklyStats))
	}
	if len(got.HeatmapData) != analytics.HeatmapSpanDays+1 {
		t.Fatalf("len(HeatmapData) = %d", len(got.HeatmapData))
	}
	if got.HeatmapData[len(got.HeatmapData)-1].Date != "2026-10-18" {
		t.Fatalf("last heatmap day = %s", got.HeatmapData[len(got.HeatmapData)-1].Date)
	}
	if !got.GeneratedAt.Equal(testNow) {
		t.Fatalf("GeneratedAt = %v", got.GeneratedAt)
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"daily_stats", "weekly_stats", "heatmap_data", "category_distribution", "recent_sessions"} {
		v, ok := shape[key]
		if !ok {
			t.Fatalf("dashboard JSON lacks %q", key)
		}
		if string(v) == "null" {
			t.Fatalf("dashboard JSON %q is null", key)
		}
	}
}

func TestDashboardComposesAllViews(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	owner := e.user(t, "alice")
	coding := e.category(t, owner, "Coding")
	reading := e.category(t, owner, "Reading")

	e.clock.Set(testNow.AddDate(0, 0, -3))
	e.logSession(t, owner, 10, model.StatusCompleted, &reading.ID)
	e.clock.Set(testNow.Add(-2 * time.Hour))
	for i := 0; i < 6; i++ {
		e.logSession(t, owner, 5, model.StatusCompleted, &coding.ID)
		e.clock.Advance(10 * time.Minute)
	}
	e.logSession(t, owner, 5, model.StatusAborted, &coding.ID)
	e.clock.Set(testNow)

	dash := service.NewDashboardService(e.calc, e.sessions, nil)
	got, err := dash.Build(context.Background(), owner, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if got.DailyStats.TotalFocusMinutes != 30 || got.DailyStats.SessionCount != 6 {
		t.Fatalf("DailyStats = %+v", got.DailyStats)
	}
	week := got.WeeklyStats
	if week[6].Minutes != 30 || week[3].Minutes != 10 {
		t.Fatalf("WeeklyStats = %+v", week)
	}
	today := got.HeatmapData[len(got.HeatmapData)-1]
	if today.Count != 6 || today.Level != 3 {
		t.Fatalf("today heatmap = %+v", today)
	}
	if len(got.CategoryDistribution) != 2 || got.CategoryDistribution[0].Name != "Coding" || got.CategoryDistribution[0].Value != 30 {
		t.Fatalf("CategoryDistribution = %+v", got.CategoryDistribution)
	}
	if len(got.RecentSessions) != service.RecentSessionsLimit {
		t.Fatalf("len(RecentSessions) = %d", len(got.RecentSessions))
	}
	if got.RecentSessions[0].Status != model.StatusAborted {
		t.Fatalf("most recent session = %+v", got.RecentSessions[0])
	}

	filtered, err := dash.Build(context.Background(), owner, &reading.ID)
	if err != nil {
		t.Fatalf("Build(filtered) error = %v", err)
	}
	if filtered.DailyStats.SessionCount != 0 {
		t.Fatalf("filtered DailyStats = %+v", filtered.DailyStats)
	}
	if len(filtered.CategoryDistribution) != 1 || filtered.CategoryDistribution[0].Value != 10 {
		t.Fatalf("filtered distribution = %+v", filtered.CategoryDistribution)
	}
	if len(filtered.RecentSessions) != 1 {
		t.Fatalf("filtered RecentSessions = %d", len(filtered.RecentSessions))
	}
}

func TestDashboardCacheInvalidatedByLedger(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "alice")
	cache := newMemoryCache()
	dash := service.NewDashboardService(e.calc, e.sessions, cache)
	e.ledger.Subscribe(dash)

	e.logSession(t, owner, 25, model.StatusCompleted, nil)
	first, err := dash.Build(ctx, owner, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := dash.Build(ctx, owner, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", cache.hits)
	}
	if second.DailyStats != first.DailyStats {
		t.Fatalf("cached dashboard differs: %+v vs %+v", second.DailyStats, first.DailyStats)
	}

	e.logSession(t, owner, 15, model.StatusCompleted, nil)
	third, err := dash.Build(ctx, owner, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if third.DailyStats.TotalFocusMinutes != 40 || third.DailyStats.SessionCount != 2 {
		t.Fatalf("stale dashboard after mutation: %+v", third.DailyStats)
	}
	if cache.hits != 1 {
		t.Fatalf("cache hits = %d after invalidation, want 1", cache.hits)
	}
}

func TestDashboardBuildRacingMutationIsNotCached(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "alice")
	cache := newMemoryCache()
	dash := service.NewDashboardService(e.calc, e.sessions, cache)
	e.ledger.Subscribe(dash)

	e.logSession(t, owner, 25, model.StatusCompleted, nil)
	cache.beforePut = func() {
		e.logSession(t, owner, 15, model.StatusCompleted, nil)
	}

	first, err := dash.Build(ctx, owner, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if first.DailyStats.TotalFocusMinutes != 25 {
		t.Fatalf("first build = %+v", first.DailyStats)
	}

	for i := 0; i < 2; i++ {
		got, err := dash.Build(ctx, owner, nil)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if got.DailyStats.TotalFocusMinutes != 40 || got.DailyStats.SessionCount != 2 {
			t.Fatalf("build %d served %+v, want 40 minutes over 2 sessions", i+2, got.DailyStats)
		}
	}
	if cache.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", cache.hits)
	}
}

func TestDashboardCacheRollsOverAtMidnight(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, "alice")
	dash := service.NewDashboardService(e.calc, e.sessions, newMemoryCache())

	e.logSession(t, owner, 25, model.StatusCompleted, nil)
	if _, err := dash.Build(ctx, owner, nil); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	e.clock.Advance(10 * time.Hour)
	got, err := dash.Build(ctx, owner, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got.DailyStats != (analytics.DailyStats{}) {
		t.Fatalf("DailyStats after midnight = %+v", got.DailyStats)
	}
	week := got.WeeklyStats
	if week[6].Date != "2026-10-19" || week[6].Minutes != 0 || week[5].Minutes != 25 {
		t.Fatalf("WeeklyStats after midnight = %+v", week)
	}
}
