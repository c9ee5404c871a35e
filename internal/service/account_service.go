package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowstate/internal/apperrors"
	"flowstate/internal/clock"
	"flowstate/internal/model"
	"flowstate/internal/repository"
	"flowstate/internal/security"
)

const minPasswordLength = 8

// Token is an issued bearer credential.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AccountService registers users and resolves bearer tokens to owner ids.
type AccountService struct {
	clock    clock.Clock
	users    *repository.UserRepository
	hasher   *security.PasswordHasher
	signer   *security.TokenSigner
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewAccountService(clk clock.Clock, users *repository.UserRepository, hasher *security.PasswordHasher, signer *security.TokenSigner, tokenTTL time.Duration) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccountService{
		clock:    clk,
		users:    users,
		hasher:   hasher,
		signer:   signer,
		tokenTTL: tokenTTL,
		logger:   slog.Default().With("module", "accounts", "layer", "service"),
	}
}

func (s *AccountService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return nil, invalid("username is required")
	case !strings.Contains(email, "@"):
		return nil, invalid("email is not valid")
	case len(password) < minPasswordLength:
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("username or email already registered: %w", apperrors.ErrConflict)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", "operation", "register", "outcome", "success", "user_id", user.ID)
	return &user, nil
}

// Verify checks a username/password pair and returns the account.
func (s *AccountService) Verify(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("incorrect username or password: %w", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if !s.hasher.Matches(user.PasswordHash, password) {
		s.logger.WarnContext(ctx, "login rejected", "operation", "login", "outcome", "failure", "user_id", user.ID)
		return nil, fmt.Errorf("incorrect username or password: %w", apperrors.ErrUnauthorized)
	}
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*Token, error) {
	user, err := s.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	expires := now.Add(s.tokenTTL)
	raw, err := s.signer.Sign(security.Claims{
		UserID:    user.ID,
		Username:  user.Username,
		IssuedAt:  now,
		ExpiresAt: expires,
	})
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: raw, TokenType: "bearer", ExpiresAt: expires}, nil
}

// Authenticate resolves a bearer token to the owning user id. The account must still exist.
func (s *AccountService) Authenticate(ctx context.Context, raw string) (string, error) {
	claims, err := s.signer.Parse(raw, s.clock.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, apperrors.ErrUnauthorized)
	}
	if _, err := s.users.FindByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("unknown account: %w", apperrors.ErrUnauthorized)
		}
		return "", err
	}
	return claims.UserID, nil
}

// LinkTelegram binds a chat to the account after verifying its credentials.
func (s *AccountService) LinkTelegram(ctx context.Context, telegramID int64, username, password string) (*model.User, error) {
	user, err := s.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.users.LinkTelegram(ctx, user.ID, telegramID); err != nil {
		return nil, err
	}
	user.TelegramID = &telegramID
	return user, nil
}

// ByTelegram returns the account bound to a chat.
func (s *AccountService) ByTelegram(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.FindByTelegramID(ctx, telegramID)
}

func (s *AccountService) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.users.FindByUsername(ctx, strings.TrimSpace(username))
}

// Linked returns every account bound to a Telegram chat.
func (s *AccountService) Linked(ctx context.Context) ([]model.User, error) {
	return s.users.ListLinked(ctx)
}
