// Package redis implements the queue engine contract on Redis Streams.
// Each queue is a stream read through a consumer group; the dead-letter
// queue is a companion stream with a ":dlq" suffix. Created queue names are
// tracked in a registry set so lookups can distinguish "absent" from
// "empty".
package redis

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"

	"webhookmq/internal/common/errors"
	"webhookmq/internal/common/logging"
	"webhookmq/queue"
)

const dlqSuffix = ":dlq"

// Engine implements queue.Engine on Redis Streams.
type Engine struct {
	client *redis.Client
	cfg    *Config
	logger logging.Logger
}

// NewEngine validates cfg, connects to Redis, and verifies the connection
// with a ping.
func NewEngine(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigError(err.Error())
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.ConnectionError("failed to connect to Redis", err)
	}

	return &Engine{
		client: client,
		cfg:    cfg,
		logger: logging.GetGlobalLogger(),
	}, nil
}

// registryKey is the set tracking every queue name created through this
// prefix.
func (e *Engine) registryKey() string {
	return e.cfg.Prefix + "queues"
}

func (e *Engine) streamKey(name string) string {
	return e.cfg.Prefix + name
}

func (e *Engine) dlqStreamKey(name string) string {
	return e.cfg.Prefix + name + dlqSuffix
}

// CreateQueuePair gets or creates the primary and dead-letter streams for
// name, along with their consumer groups. XGROUP CREATE MKSTREAM is
// idempotent (BUSYGROUP is tolerated), so concurrent callers racing on the
// same name all converge on one queue pair.
func (e *Engine) CreateQueuePair(ctx context.Context, name string) (queue.Queue, queue.Queue, error) {
	if name == "" {
		return nil, nil, errors.ValidationError("queue name must not be empty")
	}

	for _, stream := range []string{e.streamKey(name), e.dlqStreamKey(name)} {
		err := e.client.XGroupCreateMkStream(ctx, stream, e.cfg.ConsumerGroup, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return nil, nil, errors.InternalError("failed to create consumer group", err).
				WithContext("stream", stream)
		}
	}

	if err := e.client.SAdd(ctx, e.registryKey(), name).Err(); err != nil {
		return nil, nil, errors.InternalError("failed to register queue", err).
			WithContext("queue", name)
	}

	e.logger.Debug("queue pair ready",
		logging.String("queue", name),
		logging.String("stream", e.streamKey(name)),
	)

	return e.queueHandle(name, e.streamKey(name)), e.queueHandle(name, e.dlqStreamKey(name)), nil
}

// GetQueue returns the primary queue for name, or nil when no queue pair
// has been created for it.
func (e *Engine) GetQueue(ctx context.Context, name string) (queue.Queue, error) {
	exists, err := e.client.SIsMember(ctx, e.registryKey(), name).Result()
	if err != nil {
		return nil, errors.InternalError("failed to look up queue", err).
			WithContext("queue", name)
	}
	if !exists {
		return nil, nil
	}
	return e.queueHandle(name, e.streamKey(name)), nil
}

// GetDeadLetterQueue returns the dead-letter queue for name, or nil when no
// queue pair has been created for it.
func (e *Engine) GetDeadLetterQueue(ctx context.Context, name string) (queue.Queue, error) {
	exists, err := e.client.SIsMember(ctx, e.registryKey(), name).Result()
	if err != nil {
		return nil, errors.InternalError("failed to look up dead-letter queue", err).
			WithContext("queue", name)
	}
	if !exists {
		return nil, nil
	}
	return e.queueHandle(name, e.dlqStreamKey(name)), nil
}

// Health checks the Redis connection with a PING.
func (e *Engine) Health(ctx context.Context) error {
	if e.client == nil {
		return errors.ConfigError("Redis client not initialized")
	}
	return e.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (e *Engine) Close() error {
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

func (e *Engine) queueHandle(name, stream string) *Queue {
	return &Queue{
		name:     name,
		stream:   stream,
		group:    e.cfg.ConsumerGroup,
		consumer: e.cfg.ConsumerName,
		maxLen:   e.cfg.StreamMaxLen,
		client:   e.client,
		logger:   e.logger,
	}
}
