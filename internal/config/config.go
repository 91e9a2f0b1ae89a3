// Package config provides configuration management for the place enrichment
// cache. It loads configuration from environment variables with sensible
// defaults and validates the result before the application starts.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Diagnostics server port (default: 8765)
//   - LOG_LEVEL: Logging level (default: info)
//
// Persistent Store:
//   - STORE_TYPE: Store backend - "sqlite" or "redis" (default: sqlite)
//   - STORE_PATH: SQLite database file path (default: ./places_cache.db)
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Lookup Service:
//   - PLACES_API_KEY: API key for the external lookup service (required)
//   - PLACES_API_BASE_URL: Lookup service base URL (default: https://places.googleapis.com)
//   - LOOKUP_TIMEOUT: Per-call HTTP timeout (default: 8s)
//
// Budgets & Cooldown:
//   - PLACE_MAX_CALLS: Session call ceiling for the place pipeline (default: 10)
//   - HOURS_MAX_CALLS: Session call ceiling for the hours pipeline (default: 4)
//   - CALL_SPACING: Minimum spacing between calls on one pipeline (default: 1s)
//   - COOLDOWN_DAYS: Cooldown window after quota exhaustion (default: 7)
//
// Cache Freshness:
//   - ENRICHMENT_TTL_DAYS: Advisory TTL for enriched records (default: 30)
//   - POOL_TTL_DAYS: Default TTL for cached pools (default: 7)
//
// Maintenance:
//   - MAINTENANCE_SCHEDULE: Cron expression for the pool sweep (default: @hourly)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the enrichment cache. All fields
// correspond to environment variables that can be set to override defaults.
type Config struct {
	// Application settings
	Port     string // Diagnostics server port
	LogLevel string // Logging level (debug, info, warn, error)

	// Persistent store configuration
	StoreType     string // "sqlite" or "redis"
	StorePath     string // SQLite database file path
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       int    // Redis database number (0-15)
	RedisPoolSize int    // Redis connection pool size

	// Lookup service configuration
	PlacesAPIKey     string        // API key for the external lookup service
	PlacesAPIBaseURL string        // Lookup service base URL
	LookupTimeout    time.Duration // Per-call HTTP timeout

	// Geographic bias applied to identity resolution queries
	BiasLat          float64
	BiasLng          float64
	BiasRadiusMeters float64

	// Budget and cooldown configuration
	PlaceMaxCalls int           // Session ceiling for the place pipeline
	HoursMaxCalls int           // Session ceiling for the hours pipeline
	CallSpacing   time.Duration // Minimum wall-clock spacing between calls
	CooldownDays  int           // Cooldown window after quota exhaustion

	// Cache freshness configuration
	EnrichmentTTLDays int // Advisory TTL for enriched records
	PoolTTLDays       int // Default TTL for cached pools

	// Maintenance configuration
	MaintenanceSchedule string // Cron expression for the pool sweep
}

// Load creates a new Config instance with values loaded from environment
// variables. Call Validate() on the result before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8765"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreType:     getEnv("STORE_TYPE", "sqlite"),
		StorePath:     getEnv("STORE_PATH", "./places_cache.db"),
		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		PlacesAPIKey:     getEnv("PLACES_API_KEY", ""),
		PlacesAPIBaseURL: getEnv("PLACES_API_BASE_URL", "https://places.googleapis.com"),
		LookupTimeout:    getDurationEnv("LOOKUP_TIMEOUT", 8*time.Second),

		BiasLat:          getFloatEnv("BIAS_LAT", 37.3688),
		BiasLng:          getFloatEnv("BIAS_LNG", -122.0363),
		BiasRadiusMeters: getFloatEnv("BIAS_RADIUS_METERS", 25000),

		PlaceMaxCalls: getIntEnv("PLACE_MAX_CALLS", 10),
		HoursMaxCalls: getIntEnv("HOURS_MAX_CALLS", 4),
		CallSpacing:   getDurationEnv("CALL_SPACING", time.Second),
		CooldownDays:  getIntEnv("COOLDOWN_DAYS", 7),

		EnrichmentTTLDays: getIntEnv("ENRICHMENT_TTL_DAYS", 30),
		PoolTTLDays:       getIntEnv("POOL_TTL_DAYS", 7),

		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@hourly"),
	}
}

// getEnv retrieves an environment variable value or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable or returns a default.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getFloatEnv retrieves a float environment variable or returns a default.
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable or returns a default.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values are valid.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.StoreType {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("STORE_TYPE must be 'sqlite' or 'redis'")
	}

	if c.StoreType == "sqlite" && c.StorePath == "" {
		return fmt.Errorf("STORE_PATH is required when using the sqlite store")
	}

	if c.StoreType == "redis" {
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when using the redis store")
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if c.RedisPoolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.PlacesAPIKey == "" {
		return fmt.Errorf("PLACES_API_KEY environment variable is required")
	}

	if c.PlaceMaxCalls < 1 {
		return fmt.Errorf("PLACE_MAX_CALLS must be a positive number")
	}
	if c.HoursMaxCalls < 1 {
		return fmt.Errorf("HOURS_MAX_CALLS must be a positive number")
	}
	if c.PlaceMaxCalls < c.HoursMaxCalls {
		return fmt.Errorf("PLACE_MAX_CALLS must be at least HOURS_MAX_CALLS: place enrichment costs up to two calls per place")
	}

	if c.CallSpacing <= 0 {
		return fmt.Errorf("CALL_SPACING must be a positive duration")
	}
	if c.CooldownDays < 1 {
		return fmt.Errorf("COOLDOWN_DAYS must be a positive number")
	}
	if c.EnrichmentTTLDays < 1 {
		return fmt.Errorf("ENRICHMENT_TTL_DAYS must be a positive number")
	}
	if c.PoolTTLDays < 1 {
		return fmt.Errorf("POOL_TTL_DAYS must be a positive number")
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT must be a positive duration")
	}
	if c.BiasRadiusMeters <= 0 {
		return fmt.Errorf("BIAS_RADIUS_METERS must be a positive number")
	}

	return nil
}
