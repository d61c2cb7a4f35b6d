// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an
// error. A .env file is honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the matching service.
type Config struct {
	Port            string
	DatabaseURL     string
	RedisURL        string
	DailyApplyQuota int
	ExpireSweepSpec string // cron spec for the posting-deadline sweeper
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	// Best effort: production sets real env vars, local runs may use .env.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("MATCHING_PORT")
	if port == "" {
		port = "8083"
	}

	quota := 10
	if raw := os.Getenv("DAILY_APPLY_QUOTA"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("DAILY_APPLY_QUOTA must be a non-negative integer, got %q", raw)
		}
		quota = n
	}

	sweepSpec := os.Getenv("EXPIRE_SWEEP_SPEC")
	if sweepSpec == "" {
		sweepSpec = "@every 1h"
	}

	return &Config{
		Port:            port,
		DatabaseURL:     dbURL,
		RedisURL:        redisURL,
		DailyApplyQuota: quota,
		ExpireSweepSpec: sweepSpec,
	}, nil
}
