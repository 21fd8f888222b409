package redis

import (
	"fmt"

	"webhookmq/internal/common/utils"
)

// Config holds Redis queue engine settings.
type Config struct {
	Address       string
	Password      string
	DB            int
	PoolSize      int
	Prefix        string // prefix applied to every stream and registry key
	ConsumerGroup string
	ConsumerName  string
	StreamMaxLen  int64 // approximate stream length cap (0 = no limit)
}

// Validate checks required fields and fills in defaults.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("Redis address is required")
	}

	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}

	if c.Prefix == "" {
		c.Prefix = "webhook:"
	}

	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "webhookmq-group"
	}

	if c.ConsumerName == "" {
		c.ConsumerName = utils.GenerateConsumerName("webhookmq")
	}

	if c.StreamMaxLen < 0 {
		c.StreamMaxLen = 0
	}

	return nil
}

// ConnectionString returns the redis:// URL for this configuration.
func (c *Config) ConnectionString() string {
	if c.Password != "" {
		return fmt.Sprintf("redis://:%s@%s/%d", c.Password, c.Address, c.DB)
	}
	return fmt.Sprintf("redis://%s/%d", c.Address, c.DB)
}

// DefaultConfig returns a configuration suitable for a local Redis.
func DefaultConfig() *Config {
	return &Config{
		Address:       "localhost:6379",
		DB:            0,
		PoolSize:      10,
		Prefix:        "webhook:",
		ConsumerGroup: "webhookmq-group",
	}
}
