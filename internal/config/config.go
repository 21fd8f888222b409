// Package config provides environment-driven configuration for webhookmq.
// Values are loaded from environment variables with sensible defaults and
// validated before use.
//
// Environment variables:
//
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//   - QUEUE_PREFIX: Prefix for queue stream keys (default: "webhook:")
//   - CONSUMER_GROUP: Redis consumer group name (default: webhookmq-group)
//   - CONSUMER_NAME: Consumer identity; auto-generated when empty
//   - STREAM_MAX_LEN: Approximate per-stream length cap, 0 = unlimited
//   - FETCH_BATCH_SIZE: Messages fetched per route per pass (default: 10)
//   - PROCESS_INTERVAL: Blocking-fetch timeout in continuous mode (default: 1s)
//   - LOG_LEVEL: Logging level (default: info)
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for webhookmq. Load() fills it from
// the environment; call Validate() before use.
type Config struct {
	// Redis connection
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       int    // Redis database number (0-15)
	RedisPoolSize int    // Redis connection pool size

	// Queue naming and consumption
	QueuePrefix   string // Prefix applied to every queue stream key
	ConsumerGroup string // Consumer group shared by all processors
	ConsumerName  string // This process's consumer identity
	StreamMaxLen  int64  // Approximate stream length cap (0 = unlimited)

	// Processing loop
	FetchBatchSize  int           // Max messages fetched per route per pass
	ProcessInterval time.Duration // Blocking-fetch timeout in continuous mode

	LogLevel string // Logging level (debug, info, warn, error)
}

// Load creates a Config with values from environment variables, falling back
// to defaults for anything unset. Call Validate() on the result.
func Load() *Config {
	return &Config{
		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		QueuePrefix:   getEnv("QUEUE_PREFIX", "webhook:"),
		ConsumerGroup: getEnv("CONSUMER_GROUP", "webhookmq-group"),
		ConsumerName:  getEnv("CONSUMER_NAME", ""),
		StreamMaxLen:  int64(getIntEnv("STREAM_MAX_LEN", 0)),

		FetchBatchSize:  getIntEnv("FETCH_BATCH_SIZE", 10),
		ProcessInterval: getDurationEnv("PROCESS_INTERVAL", time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.RedisAddress == "" {
		return fmt.Errorf("REDIS_ADDRESS is required")
	}

	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15, got %d", c.RedisDB)
	}

	if c.RedisPoolSize <= 0 {
		return fmt.Errorf("REDIS_POOL_SIZE must be positive, got %d", c.RedisPoolSize)
	}

	if c.FetchBatchSize <= 0 {
		return fmt.Errorf("FETCH_BATCH_SIZE must be positive, got %d", c.FetchBatchSize)
	}

	if c.ProcessInterval <= 0 {
		return fmt.Errorf("PROCESS_INTERVAL must be positive, got %s", c.ProcessInterval)
	}

	if c.StreamMaxLen < 0 {
		return fmt.Errorf("STREAM_MAX_LEN must not be negative, got %d", c.StreamMaxLen)
	}

	return nil
}

// getEnv retrieves an environment variable or returns the default when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable, returning the default
// when unset or unparseable.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable (e.g. "500ms",
// "2s"), returning the default when unset or unparseable.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
