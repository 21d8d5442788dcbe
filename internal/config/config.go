package config

import (
	"errors"
	"os"
)

// Config holds the service configuration, read from the environment.
type Config struct {
	// Env is "dev" or "prod"; controls logger output.
	Env string

	// Addr is the listen address.
	Addr string

	// DatabaseURL is the Postgres connection string. Empty selects the
	// in-memory store.
	DatabaseURL string

	// RedisURL backs the event stream and the nonce audit log.
	RedisURL string

	// JWTSecret signs session tokens. Required: without it the service
	// must not start.
	JWTSecret string
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Env:         getEnv("APP_ENV", "dev"),
		Addr:        getEnv("ADDR", ":5000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
