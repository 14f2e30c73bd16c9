// Package config loads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

// EnvProduction is the CHECKIN_ENV value that turns on strict settings.
const EnvProduction = "production"

// csrfKeyInfo binds derived keys to their purpose.
const csrfKeyInfo = "eventdesk csrf v1"

// Config holds all runtime settings.
type Config struct {
	Env    string
	Addr   string
	DBPath string

	CSRFKey          []byte
	CSRFKeyGenerated bool // true when no key was configured and a random one is in use

	ResendKey string
	EmailFrom string
	ReplyTo   string

	AMQPURL   string
	AMQPQueue string

	RateLimitPerSecond int
	SlowQueryMs        int
	SlowRequestMs      int
	CheckinTimeout     time.Duration
	LogLevel           slog.Level
}

// IsProduction reports whether strict production settings apply.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads .env (if present) and then the process environment.
// PRE: none
// POST: Returns a complete Config or an error naming the offending variable
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Env:       envOrDefault("CHECKIN_ENV", "development"),
		Addr:      envOrDefault("CHECKIN_ADDR", ":8080"),
		DBPath:    envOrDefault("CHECKIN_DB_PATH", "eventdesk.db"),
		ResendKey: os.Getenv("CHECKIN_RESEND_KEY"),
		EmailFrom: envOrDefault("CHECKIN_EMAIL_FROM", "Event Desk <noreply@example.org>"),
		ReplyTo:   os.Getenv("CHECKIN_REPLY_TO"),
		AMQPURL:   os.Getenv("CHECKIN_AMQP_URL"),
		AMQPQueue: envOrDefault("CHECKIN_AMQP_QUEUE", "attendance.recorded"),
	}

	var err error
	if cfg.RateLimitPerSecond, err = intOrDefault("CHECKIN_RATE_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.SlowQueryMs, err = intOrDefault("CHECKIN_SLOW_QUERY_MS", 50); err != nil {
		return Config{}, err
	}
	if cfg.SlowRequestMs, err = intOrDefault("CHECKIN_SLOW_REQUEST_MS", 200); err != nil {
		return Config{}, err
	}
	timeoutMs, err := intOrDefault("CHECKIN_CHECKIN_TIMEOUT_MS", 10000)
	if err != nil {
		return Config{}, err
	}
	cfg.CheckinTimeout = time.Duration(timeoutMs) * time.Millisecond

	if cfg.LogLevel, err = parseLevel(envOrDefault("CHECKIN_LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}

	cfg.CSRFKey, cfg.CSRFKeyGenerated, err = loadCSRFKey(cfg.IsProduction())
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadCSRFKey resolves the 32-byte anti-forgery secret.
// CHECKIN_CSRF_KEY (64 hex chars) wins over CHECKIN_CSRF_SECRET (any passphrase, stretched with HKDF).
// In production one of them MUST be set. In development a random key is generated per startup.
func loadCSRFKey(production bool) ([]byte, bool, error) {
	if keyHex := os.Getenv("CHECKIN_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, false, errors.New("CHECKIN_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, false, nil
	}
	if secret := os.Getenv("CHECKIN_CSRF_SECRET"); secret != "" {
		key, err := DeriveKey(secret)
		return key, false, err
	}
	if production {
		return nil, false, errors.New("CHECKIN_CSRF_KEY or CHECKIN_CSRF_SECRET is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate CSRF key: %w", err)
	}
	return key, true, nil
}

// DeriveKey stretches a passphrase into a 32-byte key with HKDF-SHA256.
// The same passphrase always yields the same key.
func DeriveKey(secret string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(csrfKeyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive CSRF key: %w", err)
	}
	return key, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOrDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("CHECKIN_LOG_LEVEL must be debug, info, warn or error, got %q", s)
}

// NewLogger builds the process logger: JSON in production, text elsewhere.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
