package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresAddress(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())
}

func TestValidateNormalizesStreamMaxLen(t *testing.T) {
	cfg := &Config{Address: "localhost:6379", StreamMaxLen: -5}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(0), cfg.StreamMaxLen)
}

func TestConnectionString(t *testing.T) {
	cfg := &Config{Address: "localhost:6379", DB: 2}
	assert.Equal(t, "redis://localhost:6379/2", cfg.ConnectionString())

	cfg.Password = "hunter2"
	assert.Equal(t, "redis://:hunter2@localhost:6379/2", cfg.ConnectionString())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:6379", cfg.Address)
	assert.Equal(t, "webhook:", cfg.Prefix)
}
