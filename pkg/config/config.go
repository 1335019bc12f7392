package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quartzerp/globalsearch/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Search backends
	Search SearchConfig

	// Cache layer
	Cache CacheConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// SearchConfig holds the backend connection settings
type SearchConfig struct {
	// PostgresURL is the relational source of truth; required.
	PostgresURL      string
	PostgresMaxConns int

	// IndexEngineURL is the inverted-index engine endpoint. Empty means the
	// service runs relational-only.
	IndexEngineURL     string
	IndexEngineTimeout time.Duration

	// RegistryFile optionally replaces the built-in entity catalog with a
	// YAML file.
	RegistryFile string
}

// CacheConfig holds cache layer settings
type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisPassword string
	RedisDB       int
	DefaultTTL    time.Duration
	L1Size        int
	PopularLimit  int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	// HitRateLogSchedule is a cron expression for the periodic cache
	// hit-rate report.
	HitRateLogSchedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SEARCH_HOST", "0.0.0.0"),
			Port:            getEnv("SEARCH_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SEARCH_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SEARCH_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SEARCH_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SEARCH_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("SEARCH_HEALTH_PORT", "9090"),
		},
		Search: SearchConfig{
			PostgresURL:        getEnv("SEARCH_POSTGRES_URL", ""),
			PostgresMaxConns:   getEnvInt("SEARCH_POSTGRES_MAX_CONNS", 10),
			IndexEngineURL:     getEnv("SEARCH_INDEX_ENGINE_URL", ""),
			IndexEngineTimeout: getEnvDuration("SEARCH_INDEX_ENGINE_TIMEOUT", 5*time.Second),
			RegistryFile:       getEnv("SEARCH_REGISTRY_FILE", ""),
		},
		Cache: CacheConfig{
			Enabled:       getEnvBool("SEARCH_CACHE_ENABLED", true),
			RedisURL:      getEnv("SEARCH_REDIS_URL", "localhost:6379"),
			RedisPassword: getEnv("SEARCH_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("SEARCH_REDIS_DB", 0),
			DefaultTTL:    getEnvDuration("SEARCH_CACHE_DEFAULT_TTL", 5*time.Minute),
			L1Size:        getEnvInt("SEARCH_L1_CACHE_SIZE", 512),
			PopularLimit:  getEnvInt("SEARCH_POPULAR_QUERY_LIMIT", 10),
		},
		Observability: ObservabilityConfig{
			LogLevel:           parseLogLevel(getEnv("SEARCH_LOG_LEVEL", "info")),
			MetricsEnabled:     getEnvBool("SEARCH_METRICS_ENABLED", true),
			HitRateLogSchedule: getEnv("SEARCH_HIT_RATE_LOG_SCHEDULE", "@every 10m"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Search.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Cache.Enabled && c.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when the cache is enabled")
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache default TTL must be positive")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
