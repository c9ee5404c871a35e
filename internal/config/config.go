package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the API, the bot and the digest job.
type Config struct {
	HTTPAddr string

	DatabaseURL string
	MaxDBConns  int

	RedisURL          string
	DashboardCacheTTL time.Duration

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool
	TokenTTL          time.Duration
	BcryptCost        int

	TelegramToken string
	ReportTime    string

	LogLevel slog.Level
}

// configFile mirrors the YAML layout of flowstate.yaml.
type configFile struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Database struct {
		URL      string `yaml:"url"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"database"`
	Redis struct {
		URL             string `yaml:"url"`
		DashboardTTLSec int    `yaml:"dashboard_ttl_seconds"`
	} `yaml:"redis"`
	Auth struct {
		KeyID          string `yaml:"key_id"`
		PrivateKeyPEM  string `yaml:"private_key_pem"`
		PublicKeyPEM   string `yaml:"public_key_pem"`
		AllowEphemeral *bool  `yaml:"allow_ephemeral"`
		TokenTTLHours  int    `yaml:"token_ttl_hours"`
		BcryptRounds   int    `yaml:"bcrypt_rounds"`
	} `yaml:"auth"`
	Telegram struct {
		Token      string  `yaml:"token"`
		ReportTime *string `yaml:"report_time"`
	} `yaml:"telegram"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func defaults() Config {
	return Config{
		HTTPAddr:          ":8080",
		DatabaseURL:       "flowstate.db",
		MaxDBConns:        10,
		DashboardCacheTTL: 30 * time.Second,
		JWTKeyID:          "flowstate-key-1",
		AllowEphemeralJWT: true,
		TokenTTL:          24 * time.Hour,
		BcryptCost:        12,
		ReportTime:        "21:00",
		LogLevel:          slog.LevelInfo,
	}
}

// Load resolves configuration in order: defaults, then the YAML file at path (skipped when
// path is empty or missing), then environment variables.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.HTTP.Addr != "" {
		cfg.HTTPAddr = f.HTTP.Addr
	}
	if f.Database.URL != "" {
		cfg.DatabaseURL = f.Database.URL
	}
	if f.Database.MaxConns > 0 {
		cfg.MaxDBConns = f.Database.MaxConns
	}
	if f.Redis.URL != "" {
		cfg.RedisURL = f.Redis.URL
	}
	if f.Redis.DashboardTTLSec > 0 {
		cfg.DashboardCacheTTL = time.Duration(f.Redis.DashboardTTLSec) * time.Second
	}
	if f.Auth.KeyID != "" {
		cfg.JWTKeyID = f.Auth.KeyID
	}
	if f.Auth.PrivateKeyPEM != "" {
		cfg.JWTPrivateKeyPEM = f.Auth.PrivateKeyPEM
	}
	if f.Auth.PublicKeyPEM != "" {
		cfg.JWTPublicKeyPEM = f.Auth.PublicKeyPEM
	}
	if f.Auth.AllowEphemeral != nil {
		cfg.AllowEphemeralJWT = *f.Auth.AllowEphemeral
	}
	if f.Auth.TokenTTLHours > 0 {
		cfg.TokenTTL = time.Duration(f.Auth.TokenTTLHours) * time.Hour
	}
	if f.Auth.BcryptRounds > 0 {
		cfg.BcryptCost = f.Auth.BcryptRounds
	}
	if f.Telegram.Token != "" {
		cfg.TelegramToken = f.Telegram.Token
	}
	if f.Telegram.ReportTime != nil {
		cfg.ReportTime = strings.TrimSpace(*f.Telegram.ReportTime)
	}
	if f.Log.Level != "" {
		level, err := parseLevel(f.Log.Level)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTKeyID = envOrDefault("JWT_KEY_ID", cfg.JWTKeyID)
	cfg.JWTPrivateKeyPEM = envOrDefault("JWT_PRIVATE_KEY_PEM", cfg.JWTPrivateKeyPEM)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.TelegramToken = envOrDefault("TELEGRAM_TOKEN", cfg.TelegramToken)
	if v, ok := os.LookupEnv("REPORT_TIME"); ok {
		cfg.ReportTime = strings.TrimSpace(v)
	}

	var err error
	if cfg.MaxDBConns, err = envInt("DB_MAX_CONNS", cfg.MaxDBConns); err != nil {
		return err
	}
	if cfg.BcryptCost, err = envInt("BCRYPT_ROUNDS", cfg.BcryptCost); err != nil {
		return err
	}
	ttlSeconds, err := envInt("DASHBOARD_CACHE_TTL_SECONDS", int(cfg.DashboardCacheTTL/time.Second))
	if err != nil {
		return err
	}
	cfg.DashboardCacheTTL = time.Duration(ttlSeconds) * time.Second
	tokenHours, err := envInt("TOKEN_EXPIRY_HOURS", int(cfg.TokenTTL/time.Hour))
	if err != nil {
		return err
	}
	cfg.TokenTTL = time.Duration(tokenHours) * time.Hour
	if cfg.AllowEphemeralJWT, err = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		if cfg.LogLevel, err = parseLevel(v); err != nil {
			return err
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}
