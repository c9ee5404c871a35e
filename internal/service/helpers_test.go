package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"flowstate/internal/analytics"
	"flowstate/internal/clock"
	"flowstate/internal/model"
	"flowstate/internal/repository"
	"flowstate/internal/security"
	"flowstate/internal/service"
)

// 2026-10-18 15:00 UTC, a Sunday.
var testNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

type env struct {
	db         *gorm.DB
	clock      *clock.Manual
	users      *repository.UserRepository
	categories *repository.CategoryRepository
	sessions   *repository.SessionRepository
	ledger     *service.LedgerService
	calc       *analytics.Calculator
	accounts   *service.AccountService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "flowstate.db"), 1)
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	clk := clock.NewManual(testNow)
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	sessions := repository.NewSessionRepository(db)
	signer, err := security.NewEphemeralTokenSigner("test")
	if err != nil {
		t.Fatalf("NewEphemeralTokenSigner() error = %v", err)
	}
	return &env{
		db:         db,
		clock:      clk,
		users:      users,
		categories: categories,
		sessions:   sessions,
		ledger:     service.NewLedgerService(clk, categories, sessions),
		calc:       analytics.NewCalculator(clk, sessions, categories),
		accounts: service.NewAccountService(clk, users, security.NewPasswordHasher(bcrypt.MinCost),
			signer, time.Hour),
	}
}

func (e *env) user(t *testing.T, username string) string {
	t.Helper()
	u, err := e.accounts.Register(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("Register(%q) error = %v", username, err)
	}
	return u.ID
}

func (e *env) category(t *testing.T, owner, name string) *model.Category {
	t.Helper()
	c, err := e.ledger.CreateCategory(context.Background(), owner, name, "#6366f1")
	if err != nil {
		t.Fatalf("CreateCategory(%q) error = %v", name, err)
	}
	return c
}

func (e *env) logSession(t *testing.T, owner string, minutes int, status model.SessionStatus, categoryID *uint) *model.FocusSession {
	t.Helper()
	s, err := e.ledger.CreateSession(context.Background(), owner, service.SessionInput{
		DurationMinutes: minutes,
		Status:          string(status),
		CategoryID:      categoryID,
	})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return s
}

type recordingListener struct {
	owners []string
}

func (r *recordingListener) OwnerChanged(_ context.Context, userID string) {
	r.owners = append(r.owners, userID)
}
