// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	SEARCH_HOST="0.0.0.0"
//	SEARCH_PORT="8080"
//	SEARCH_HEALTH_PORT="9090"
//	SEARCH_READ_TIMEOUT="15s"
//	SEARCH_WRITE_TIMEOUT="15s"
//
// Backend settings:
//
//	SEARCH_POSTGRES_URL="postgres://localhost/erp"
//	SEARCH_POSTGRES_MAX_CONNS="10"
//	SEARCH_INDEX_ENGINE_URL="http://localhost:9200"  # empty = relational only
//	SEARCH_REGISTRY_FILE="/etc/globalsearch/entities.yaml"
//
// Cache settings:
//
//	SEARCH_CACHE_ENABLED="true"
//	SEARCH_REDIS_URL="localhost:6379"
//	SEARCH_CACHE_DEFAULT_TTL="5m"
//	SEARCH_L1_CACHE_SIZE="512"
//	SEARCH_POPULAR_QUERY_LIMIT="10"
//
// Observability settings:
//
//	SEARCH_LOG_LEVEL="info"  # debug, info, warn, error
//	SEARCH_METRICS_ENABLED="true"
//	SEARCH_HIT_RATE_LOG_SCHEDULE="@every 10m"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/registry: Consumes the optional YAML catalog file
//   - pkg/observability: Uses observability configuration
package config
