package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	engine, err := NewEngine(&Config{
		Address:       server.Addr(),
		Prefix:        "webhook:",
		ConsumerGroup: "test-group",
		ConsumerName:  "test-consumer",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	return engine, server
}

func TestNewEngine(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: &Config{
				Address:       server.Addr(),
				ConsumerGroup: "g",
				ConsumerName:  "c",
			},
			wantErr: false,
		},
		{
			name:    "empty address",
			config:  &Config{},
			wantErr: true,
			errMsg:  "address is required",
		},
		{
			name: "connection failure",
			config: &Config{
				Address: "invalid:6379",
			},
			wantErr: true,
			errMsg:  "failed to connect to Redis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(tt.config)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.Nil(t, engine)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, engine)
				engine.Close()
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{Address: "localhost:6379"}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, "webhook:", cfg.Prefix)
	assert.Equal(t, "webhookmq-group", cfg.ConsumerGroup)
	assert.NotEmpty(t, cfg.ConsumerName)
}

func TestCreateQueuePair(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	primary, dlq, err := engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "orders", primary.Name())
	assert.Equal(t, "orders", dlq.Name())

	// Second create is a fetch; no error, same queue identity.
	primary2, _, err := engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, primary.Name(), primary2.Name())
}

func TestCreateQueuePairEmptyName(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, _, err := engine.CreateQueuePair(context.Background(), "")
	assert.Error(t, err)
}

func TestGetQueue(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	q, err := engine.GetQueue(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, q)

	_, _, err = engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)

	q, err = engine.GetQueue(ctx, "orders")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "orders", q.Name())
}

func TestGetDeadLetterQueue(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	dlq, err := engine.GetDeadLetterQueue(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, dlq)

	_, created, err := engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)

	dlq, err = engine.GetDeadLetterQueue(ctx, "orders")
	require.NoError(t, err)
	require.NotNil(t, dlq)
	assert.Equal(t, created.(*Queue).Stream(), dlq.(*Queue).Stream())
}

func TestHealth(t *testing.T) {
	engine, server := newTestEngine(t)

	assert.NoError(t, engine.Health(context.Background()))

	server.Close()
	assert.Error(t, engine.Health(context.Background()))
}

func TestClose(t *testing.T) {
	engine, _ := newTestEngine(t)

	assert.NoError(t, engine.Close())
	assert.Error(t, engine.Health(context.Background()))

	// Closing twice is harmless.
	assert.NoError(t, engine.Close())
}
