// Package config builds process configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the registry service.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	TokenTTL      time.Duration
	CountCacheTTL time.Duration

	// Seed administrator, created on startup if missing.
	AdminUsername    string
	AdminPassword    string
	AdminDisplayName string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("CIVREG_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:             addr,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		JWTSigningKey:    jwtSigningKey,
		TokenTTL:         durationFromEnv("TOKEN_TTL_MINUTES", 30*time.Minute),
		CountCacheTTL:    durationFromEnv("COUNT_CACHE_TTL_MINUTES", 5*time.Minute),
		AdminUsername:    stringFromEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:    stringFromEnv("ADMIN_PASSWORD", "change-me-on-first-login"),
		AdminDisplayName: stringFromEnv("ADMIN_DISPLAY_NAME", "System Administrator"),
	}
}

func stringFromEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}
