package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// Database
	DatabaseURL string

	// Redis (optional). When set, fuzzy search responses are cached there.
	RedisURL string

	// Fuzzy search collaborator base URL. Empty means the built-in matcher
	// backed by the local database is used instead of a remote service.
	FuzzySearchURL string

	// IdempotencyWaitMs bounds how long a duplicate caller waits for the
	// first caller's in-flight result before receiving the processing sentinel.
	IdempotencyWaitMs int

	// Fuzzy holds the entity resolution thresholds. Loaded once at startup
	// and treated as immutable afterwards.
	Fuzzy FuzzyConfig
}

// FuzzyConfig holds the confidence thresholds for entity resolution.
type FuzzyConfig struct {
	MinScoreAuto      float64 // auto-accept at or above this score
	MinScoreShow      float64 // present candidates at or above this score
	MaxResults        int     // candidates requested per fuzzy query
	EnforceUniquePart bool    // fail resolution when one canonical part number maps to multiple parts
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:               getEnv("ENV", "development"),
		ServerAddr:        getEnv("SERVER_ADDR", ":3000"),
		DatabaseURL:       getEnv("DATABASE_URL", "postgres://localhost:5432/opsbot?sslmode=disable"),
		RedisURL:          getEnv("REDIS_URL", ""),
		FuzzySearchURL:    getEnv("FUZZY_SEARCH_URL", ""),
		IdempotencyWaitMs: getEnvInt("IDEMPOTENCY_WAIT_MS", 2000, 100, 60000),
		Fuzzy: FuzzyConfig{
			MinScoreAuto:      getEnvFloat("FUZZY_MIN_SCORE_AUTO", 0.6, 0, 1),
			MinScoreShow:      getEnvFloat("FUZZY_MIN_SCORE_SHOW", 0.35, 0, 1),
			MaxResults:        getEnvInt("FUZZY_MAX_RESULTS", 10, 1, 50),
			EnforceUniquePart: getEnvBool("CANON_ENFORCE_UNIQUE_PART", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvFloat parses a float environment variable and clamps it to [min, max].
func getEnvFloat(key string, fallback, min, max float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("Invalid float for %s: %q, using default %v", key, raw, fallback)
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// getEnvInt parses an integer environment variable and clamps it to [min, max].
func getEnvInt(key string, fallback, min, max int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, raw, fallback)
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Invalid boolean for %s: %q, using default %v", key, raw, fallback)
		return fallback
	}
	return value
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}
