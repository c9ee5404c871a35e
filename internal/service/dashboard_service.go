package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"flowstate/internal/analytics"
	"flowstate/internal/model"
	"flowstate/internal/repository"
)

// RecentSessionsLimit is how many sessions the dashboard lists.
const RecentSessionsLimit = 5

// Dashboard is the composed analytics view for one owner and optional category.
type Dashboard struct {
	DailyStats           analytics.DailyStats      `json:"daily_stats"`
	WeeklyStats          []analytics.DayMinutes    `json:"weekly_stats"`
	HeatmapData          []analytics.HeatmapCell   `json:"heatmap_data"`
	CategoryDistribution []analytics.CategoryShare `json:"category_distribution"`
	RecentSessions       []model.FocusSession      `json:"recent_sessions"`
	GeneratedAt          time.Time                 `json:"generated_at"`
}

// DashboardCache stores encoded dashboards per owner. Get returns nil on a miss.
// Invalidate bumps the owner's generation; Put stores only while the generation still
// equals gen, so a build that raced a mutation never writes its result back.
type DashboardCache interface {
	Generation(ctx context.Context, owner string) (int64, error)
	Get(ctx context.Context, owner, field string) ([]byte, error)
	Put(ctx context.Context, owner, field string, gen int64, payload []byte) error
	Invalidate(ctx context.Context, owner string) error
}

type DashboardService struct {
	calc     *analytics.Calculator
	sessions *repository.SessionRepository
	cache    DashboardCache
	logger   *slog.Logger
}

// NewDashboardService builds the composer. cache may be nil.
func NewDashboardService(calc *analytics.Calculator, sessions *repository.SessionRepository, cache DashboardCache) *DashboardService {
	return &DashboardService{
		calc:     calc,
		sessions: sessions,
		cache:    cache,
		logger:   slog.Default().With("module", "dashboard", "layer", "service"),
	}
}

// Build assembles all four statistics plus the most recent sessions. The clock is read once
// and that instant bounds every window in the response.
func (s *DashboardService) Build(ctx context.Context, userID string, categoryID *uint) (*Dashboard, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	now := s.calc.Now()
	field := cacheField(now, categoryID)
	gen, cacheable := s.generation(ctx, userID)
	if cacheable {
		if cached := s.fromCache(ctx, userID, field); cached != nil {
			return cached, nil
		}
	}

	filter := analytics.Filter{UserID: userID, CategoryID: categoryID}
	out := &Dashboard{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.DailyStats, err = s.calc.DailyAt(gctx, filter, now)
		return err
	})
	g.Go(func() (err error) {
		out.WeeklyStats, err = s.calc.WeeklyAt(gctx, filter, now)
		return err
	})
	g.Go(func() (err error) {
		out.HeatmapData, err = s.calc.HeatmapAt(gctx, filter, now)
		return err
	})
	g.Go(func() (err error) {
		out.CategoryDistribution, err = s.calc.Distribution(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		out.RecentSessions, err = s.sessions.List(gctx, repository.SessionFilter{
			UserID:     userID,
			CategoryID: categoryID,
			Limit:      RecentSessionsLimit,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "dashboard build failed",
			"operation", "build_dashboard",
			"outcome", "failure",
			"error", err,
		)
		return nil, fmt.Errorf("build dashboard: %w", err)
	}
	if out.CategoryDistribution == nil {
		out.CategoryDistribution = []analytics.CategoryShare{}
	}
	if out.RecentSessions == nil {
		out.RecentSessions = []model.FocusSession{}
	}

	if cacheable {
		s.toCache(ctx, userID, field, gen, out)
	}
	return out, nil
}

// OwnerChanged drops the owner's cached dashboards after a ledger mutation.
func (s *DashboardService) OwnerChanged(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache invalidation failed",
			"operation", "invalidate_dashboard",
			"outcome", "failure",
			"error", err,
		)
	}
}

// generation reports the owner's cache generation; false disables the cache for this build.
func (s *DashboardService) generation(ctx context.Context, userID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard cache read failed", "operation", "build_dashboard", "error", err)
		return 0, false
	}
	return gen, true
}

func (s *DashboardService) fromCache(ctx context.Context, userID, field string) *Dashboard {
	raw, err := s.cache.Get(ctx, userID, field)
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard cache read failed", "operation", "build_dashboard", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var out Dashboard
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}

func (s *DashboardService) toCache(ctx context.Context, userID, field string, gen int64, d *Dashboard) {
	raw, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := s.cache.Put(ctx, userID, field, gen, raw); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache write failed", "operation", "build_dashboard", "error", err)
	}
}

// cacheField keys a dashboard by the UTC day it was built on, so "today" rolls over at midnight.
func cacheField(now time.Time, categoryID *uint) string {
	day := analytics.DayKey(now)
	if categoryID == nil {
		return day + ":all"
	}
	return day + ":category:" + strconv.FormatUint(uint64(*categoryID), 10)
}
