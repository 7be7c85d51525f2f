// Package config loads the service configuration from the environment.
// A .env file, when present, is loaded first; variables already set in the
// process environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the service.
type Config struct {
	DatabaseDSN   string
	RedisAddr     string
	RedisPassword string

	// JWTSecret signs new tokens. JWTPreviousSecrets are still accepted when
	// verifying, so a secret can be rotated without logging everyone out.
	JWTSecret          string
	JWTPreviousSecrets []string
	TokenTTL           time.Duration

	Port           string
	MaxUploadBytes int64
	// TxTimeout bounds a single submission transaction. Zero disables it.
	TxTimeout time.Duration

	// AllowedOrigins may open the notification websocket from a browser.
	// Same-origin requests are always accepted; "*" accepts any origin.
	AllowedOrigins []string
}

var ErrMissingSecret = errors.New("JWT_SECRET is not set")

// Load reads the given .env files (or ./.env when none are given) and then
// the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg := &Config{
		DatabaseDSN:        databaseDSN(),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTPreviousSecrets: splitList(os.Getenv("JWT_PREVIOUS_SECRETS")),
		AllowedOrigins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
		Port:               getEnv("PORT", DefaultPort),
		TokenTTL:           DefaultTokenTTL,
		MaxUploadBytes:     DefaultMaxUploadBytes,
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", DefaultTokenTTL); err != nil {
		return nil, err
	}
	if cfg.TxTimeout, err = getDuration("TX_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", v)
		}
		cfg.MaxUploadBytes = n
	}

	return cfg, nil
}

// databaseDSN prefers DATABASE_URL and falls back to the discrete DB_* variables.
func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "user"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "ecoplaint"),
		getEnv("DB_PORT", "5432"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
