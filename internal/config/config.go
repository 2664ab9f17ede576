// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the knowledge store connection, session TTL, result caps, and server mode.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Knowledge store (Neo4j) configuration. Opaque to the QA core, passed
	// through to the gateway.
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string // empty means the server default database

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Better Stack integration
	BetterStackToken    string // Log shipping token (empty = local logging only)
	BetterStackEndpoint string // Log ingesting endpoint override
	SentryToken         string // Better Stack Errors application token (empty = disabled)
	SentryHost          string // Better Stack Errors ingesting host

	// Data Configuration
	DataDir  string        // Data directory for the SQLite query-result cache
	CacheTTL time.Duration // TTL for cached store query results (default: 1 hour)

	// QA engine configuration (embedded)
	QA QAConfig
}

// QAConfig holds dialogue-engine specific configuration
type QAConfig struct {
	// SessionTTL bounds follow-up resolution: a dialog context older than
	// this is treated as absent.
	SessionTTL time.Duration

	// AnswerTimeout is the per-turn processing deadline, covering pattern
	// matching, store queries, and formatting.
	AnswerTimeout time.Duration

	// Result caps per query kind.
	SuggestionCap    int // similar-field suggestions (default: 5)
	FieldPubsLimit   int // publications per field query (default: 10)
	RecentPubsLimit  int // recent publications per field (default: 5)
	MoreInfoLimit    int // rows for "more info" follow-up (default: 5)
	NetworkEdgeLimit int // edges per network export (default: 50)

	// Rate limiting (token bucket, per session)
	SessionRateLimitBurst     float64 // maximum burst tokens (default: 10)
	SessionRateLimitPerSecond float64 // tokens refilled per second (default: 0.5)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", ""),

		Port:            getEnv("PORT", "10000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		BetterStackToken:    getEnv("BETTERSTACK_TOKEN", ""),
		BetterStackEndpoint: getEnv("BETTERSTACK_ENDPOINT", ""),
		SentryToken:         getEnv("SENTRY_TOKEN", ""),
		SentryHost:          getEnv("SENTRY_HOST", "errors.betterstack.com"),

		DataDir:  getEnv("DATA_DIR", "./data"),
		CacheTTL: getDurationEnv("CACHE_TTL", time.Hour),

		QA: QAConfig{
			SessionTTL:                getDurationEnv("SESSION_TTL", 5*time.Minute),
			AnswerTimeout:             getDurationEnv("ANSWER_TIMEOUT", 15*time.Second),
			SuggestionCap:             getIntEnv("SUGGESTION_CAP", 5),
			FieldPubsLimit:            getIntEnv("FIELD_PUBS_LIMIT", 10),
			RecentPubsLimit:           getIntEnv("RECENT_PUBS_LIMIT", 5),
			MoreInfoLimit:             getIntEnv("MORE_INFO_LIMIT", 5),
			NetworkEdgeLimit:          getIntEnv("NETWORK_EDGE_LIMIT", 50),
			SessionRateLimitBurst:     getFloatEnv("SESSION_RATE_LIMIT_BURST", 10.0),
			SessionRateLimitPerSecond: getFloatEnv("SESSION_RATE_LIMIT_PER_SEC", 0.5),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Neo4jURI == "" {
		errs = append(errs, errors.New("NEO4J_URI is required"))
	}
	if c.Neo4jUser == "" {
		errs = append(errs, errors.New("NEO4J_USER is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %v", c.CacheTTL))
	}
	if err := c.QA.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("qa config: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks QA engine configuration bounds.
func (c *QAConfig) Validate() error {
	var errs []error

	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL))
	}
	if c.AnswerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ANSWER_TIMEOUT must be positive, got %v", c.AnswerTimeout))
	}
	if c.SuggestionCap <= 0 {
		errs = append(errs, fmt.Errorf("SUGGESTION_CAP must be positive, got %d", c.SuggestionCap))
	}
	if c.FieldPubsLimit <= 0 {
		errs = append(errs, fmt.Errorf("FIELD_PUBS_LIMIT must be positive, got %d", c.FieldPubsLimit))
	}
	if c.RecentPubsLimit <= 0 {
		errs = append(errs, fmt.Errorf("RECENT_PUBS_LIMIT must be positive, got %d", c.RecentPubsLimit))
	}
	if c.MoreInfoLimit <= 0 {
		errs = append(errs, fmt.Errorf("MORE_INFO_LIMIT must be positive, got %d", c.MoreInfoLimit))
	}
	if c.NetworkEdgeLimit <= 0 {
		errs = append(errs, fmt.Errorf("NETWORK_EDGE_LIMIT must be positive, got %d", c.NetworkEdgeLimit))
	}
	if c.SessionRateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_RATE_LIMIT_BURST must be positive, got %v", c.SessionRateLimitBurst))
	}
	if c.SessionRateLimitPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_RATE_LIMIT_PER_SEC must be positive, got %v", c.SessionRateLimitPerSecond))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SQLitePath returns the full path to the SQLite cache database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
