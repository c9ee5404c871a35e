package service

import (
	"context"
	"fmt"
	"log/slog"

	"flowstate/internal/apperrors"
	"flowstate/internal/clock"
	"flowstate/internal/repository"
)

// ChangeListener is told after an owner's ledger data changed and committed.
type ChangeListener interface {
	OwnerChanged(ctx context.Context, userID string)
}

// LedgerService owns every mutation of categories and focus sessions.
// All operations are scoped by the caller's user id.
type LedgerService struct {
	clock        clock.Clock
	categoryRepo *repository.CategoryRepository
	sessionRepo  *repository.SessionRepository
	listeners    []ChangeListener
}

func NewLedgerService(clk clock.Clock, categoryRepo *repository.CategoryRepository, sessionRepo *repository.SessionRepository) *LedgerService {
	return &LedgerService{clock: clk, categoryRepo: categoryRepo, sessionRepo: sessionRepo}
}

// Subscribe registers l for change notifications. Call it during wiring only.
func (s *LedgerService) Subscribe(l ChangeListener) {
	s.listeners = append(s.listeners, l)
}

func (s *LedgerService) changed(ctx context.Context, userID string) {
	for _, l := range s.listeners {
		l.OwnerChanged(ctx, userID)
	}
}

func requireOwner(userID string) error {
	if userID == "" {
		return fmt.Errorf("owner is required: %w", apperrors.ErrUnauthorized)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func ledgerLogger() *slog.Logger {
	return slog.Default().With("module", "ledger", "layer", "service")
}
