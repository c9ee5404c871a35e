// Package seed fills a store with a demo account and two months of focus history.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"flowstate/internal/apperrors"
	"flowstate/internal/model"
	"flowstate/internal/service"
)

const (
	DemoUsername = "demo"
	DemoEmail    = "demo@example.com"
	DemoPassword = "password"

	historyDays     = 60
	activeDayChance = 0.7
	abortChance     = 0.1
)

// DemoCategories are created for the demo account when missing.
var DemoCategories = []model.Category{
	{Name: "Coding", Color: "#6366f1"},
	{Name: "Reading", Color: "#10b981"},
	{Name: "Writing", Color: "#f59e0b"},
	{Name: "Meeting", Color: "#ef4444"},
}

// mostly pomodoros
var durations = []int{25, 25, 25, 50}

type Result struct {
	UserID     string
	Categories int
	Sessions   int
}

type Seeder struct {
	accounts *service.AccountService
	ledger   *service.LedgerService
	rng      *rand.Rand
}

// New builds a seeder. A nil rng draws from a time-seeded source.
func New(accounts *service.AccountService, ledger *service.LedgerService, rng *rand.Rand) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	return &Seeder{accounts: accounts, ledger: ledger, rng: rng}
}

// Run ensures the demo account and its categories exist, then appends sessions for the
// historyDays days ending at now. Sessions never end after now.
func (s *Seeder) Run(ctx context.Context, now time.Time) (Result, error) {
	user, err := s.ensureUser(ctx)
	if err != nil {
		return Result{}, err
	}
	categories, err := s.ensureCategories(ctx, user.ID)
	if err != nil {
		return Result{}, err
	}

	sessions := s.history(categories, now.UTC())
	if err := s.ledger.ImportSessions(ctx, user.ID, sessions); err != nil {
		return Result{}, fmt.Errorf("import demo sessions: %w", err)
	}
	slog.Default().InfoContext(ctx, "demo data seeded",
		"operation", "seed",
		"outcome", "success",
		"user_id", user.ID,
		"sessions", len(sessions),
	)
	return Result{UserID: user.ID, Categories: len(categories), Sessions: len(sessions)}, nil
}

func (s *Seeder) ensureUser(ctx context.Context) (*model.User, error) {
	user, err := s.accounts.ByUsername(ctx, DemoUsername)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return s.accounts.Register(ctx, DemoUsername, DemoEmail, DemoPassword)
}

func (s *Seeder) ensureCategories(ctx context.Context, userID string) ([]model.Category, error) {
	out := make([]model.Category, 0, len(DemoCategories))
	for _, want := range DemoCategories {
		existing, err := s.ledger.CategoryByName(ctx, userID, want.Name)
		switch {
		case err == nil:
			out = append(out, *existing)
			continue
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, err
		}
		created, err := s.ledger.CreateCategory(ctx, userID, want.Name, want.Color)
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}
	return out, nil
}

func (s *Seeder) history(categories []model.Category, now time.Time) []model.FocusSession {
	var out []model.FocusSession
	first := now.AddDate(0, 0, -historyDays)
	for day := first; !day.After(now); day = day.AddDate(0, 0, 1) {
		if s.rng.Float64() >= activeDayChance {
			continue
		}
		count := 1 + s.rng.IntN(5)
		for range count {
			category := categories[s.rng.IntN(len(categories))]
			minutes := durations[s.rng.IntN(len(durations))]
			start := time.Date(day.Year(), day.Month(), day.Day(), 8+s.rng.IntN(15), s.rng.IntN(60), 0, 0, time.UTC)
			end := start.Add(time.Duration(minutes) * time.Minute)
			if end.After(now) {
				continue
			}
			status := model.StatusCompleted
			if s.rng.Float64() < abortChance {
				status = model.StatusAborted
			}
			note := "Demo session for " + category.Name
			categoryID := category.ID
			out = append(out, model.FocusSession{
				CategoryID:      &categoryID,
				StartTime:       start,
				EndTime:         &end,
				DurationMinutes: minutes,
				Status:          status,
				Note:            &note,
			})
		}
	}
	return out
}
