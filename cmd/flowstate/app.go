package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"flowstate/internal/analytics"
	"flowstate/internal/cache"
	"flowstate/internal/clock"
	"flowstate/internal/config"
	"flowstate/internal/repository"
	"flowstate/internal/security"
	"flowstate/internal/service"
)

// app holds every wired component for one process.
type app struct {
	cfg       config.Config
	db        *gorm.DB
	redis     *redis.Client
	clock     clock.Clock
	calc      *analytics.Calculator
	ledger    *service.LedgerService
	accounts  *service.AccountService
	dashboard *service.DashboardService
	reports   *service.ReportService
}

func setupLogging(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func loadApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	setupLogging(cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	signer, err := tokenSigner(cfg)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	clk := clock.SystemClock{}
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	sessions := repository.NewSessionRepository(db)

	a := &app{
		cfg:      cfg,
		db:       db,
		clock:    clk,
		calc:     analytics.NewCalculator(clk, sessions, categories),
		ledger:   service.NewLedgerService(clk, categories, sessions),
		accounts: service.NewAccountService(clk, users, security.NewPasswordHasher(cfg.BcryptCost), signer, cfg.TokenTTL),
	}
	a.reports = service.NewReportService(a.calc)

	var dashboardCache service.DashboardCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("dashboard cache disabled", "operation", "connect_redis", "outcome", "failure", "error", err)
		} else {
			a.redis = client
			dashboardCache = cache.NewDashboardStore(client, cfg.DashboardCacheTTL)
		}
	}
	a.dashboard = service.NewDashboardService(a.calc, sessions, dashboardCache)
	a.ledger.Subscribe(a.dashboard)
	return a, nil
}

func tokenSigner(cfg config.Config) (*security.TokenSigner, error) {
	if cfg.JWTPrivateKeyPEM != "" || cfg.JWTPublicKeyPEM != "" {
		return security.NewTokenSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	}
	if !cfg.AllowEphemeralJWT {
		return nil, errors.New("JWT_PRIVATE_KEY_PEM and JWT_PUBLIC_KEY_PEM are required when JWT_ALLOW_EPHEMERAL=false")
	}
	slog.Warn("using an ephemeral signing key; tokens will not survive a restart")
	return security.NewEphemeralTokenSigner(cfg.JWTKeyID)
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	closeDB(a.db)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
