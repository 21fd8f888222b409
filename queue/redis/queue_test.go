package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webhookmq/queue"
)

// nonBlocking performs a non-blocking fetch.
const nonBlocking = time.Duration(-1)

func TestEnqueueFetchAcknowledge(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	primary, _, err := engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)

	id, err := primary.Enqueue(ctx, map[string]interface{}{
		"order_id": "123",
		"amount":   49.99,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	messages, err := primary.Fetch(ctx, 10, nonBlocking)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, id, messages[0].ID)
	assert.Equal(t, "123", messages[0].Payload["order_id"])
	assert.Equal(t, 49.99, messages[0].Payload["amount"])

	require.NoError(t, primary.Acknowledge(ctx, messages[0].ID))

	// Acknowledged messages are not re-delivered.
	messages, err = primary.Fetch(ctx, 10, nonBlocking)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestFetchEmptyQueueNonBlocking(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	primary, _, err := engine.CreateQueuePair(ctx, "empty")
	require.NoError(t, err)

	messages, err := primary.Fetch(ctx, 10, nonBlocking)
	assert.NoError(t, err)
	assert.Empty(t, messages)
}

func TestFetchHonorsCount(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	primary, _, err := engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := primary.Enqueue(ctx, map[string]interface{}{"n": i})
		require.NoError(t, err)
	}

	messages, err := primary.Fetch(ctx, 2, nonBlocking)
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	messages, err = primary.Fetch(ctx, 10, nonBlocking)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
}

func TestAcknowledgeNoIDs(t *testing.T) {
	engine, _ := newTestEngine(t)

	primary, _, err := engine.CreateQueuePair(context.Background(), "orders")
	require.NoError(t, err)

	assert.NoError(t, primary.Acknowledge(context.Background()))
}

func TestMoveToDeadLetter(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	primary, dlq, err := engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)

	id, err := primary.Enqueue(ctx, map[string]interface{}{"order_id": "123"})
	require.NoError(t, err)

	messages, err := primary.Fetch(ctx, 10, nonBlocking)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	err = primary.MoveToDeadLetter(ctx, []string{id}, "processing error: boom", dlq)
	require.NoError(t, err)

	// The dead-letter stream carries the original body plus failure fields.
	entries, err := engine.client.XRange(ctx, dlq.(*Queue).Stream(), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "processing error: boom", entries[0].Values["reason"])
	assert.Equal(t, id, entries[0].Values["origin_id"])
	assert.Contains(t, entries[0].Values, "body")
	assert.Contains(t, entries[0].Values, "failed_at")

	// The move acknowledged the message on the primary queue.
	pending, err := engine.client.XPending(ctx, primary.(*Queue).Stream(), "test-group").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestMoveToDeadLetterWrongQueueType(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	primary, _, err := engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)

	err = primary.MoveToDeadLetter(ctx, []string{"1-0"}, "boom", notARedisQueue{})
	assert.Error(t, err)
}

// notARedisQueue is a queue.Queue that is not backed by this engine.
type notARedisQueue struct{}

func (notARedisQueue) Name() string { return "other" }
func (notARedisQueue) Enqueue(ctx context.Context, payload map[string]interface{}) (string, error) {
	return "", nil
}
func (notARedisQueue) Fetch(ctx context.Context, count int64, block time.Duration) ([]queue.Message, error) {
	return nil, nil
}
func (notARedisQueue) Acknowledge(ctx context.Context, ids ...string) error { return nil }
func (notARedisQueue) MoveToDeadLetter(ctx context.Context, ids []string, reason string, dlq queue.Queue) error {
	return nil
}

func TestEnqueueStreamMaxLen(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	engine, err := NewEngine(&Config{
		Address:       server.Addr(),
		Prefix:        "webhook:",
		ConsumerGroup: "test-group",
		ConsumerName:  "test-consumer",
		StreamMaxLen:  5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	ctx := context.Background()
	primary, _, err := engine.CreateQueuePair(ctx, "limited")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := primary.Enqueue(ctx, map[string]interface{}{"n": i})
		require.NoError(t, err)
	}

	length, err := engine.client.XLen(ctx, primary.(*Queue).Stream()).Result()
	require.NoError(t, err)
	// Approximate trimming may keep slightly more than the cap.
	assert.LessOrEqual(t, length, int64(10))
	assert.GreaterOrEqual(t, length, int64(5))
}

func TestFetchSkipsUndecodableBody(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	primary, _, err := engine.CreateQueuePair(ctx, "orders")
	require.NoError(t, err)

	// An entry written outside Enqueue, with a non-JSON body.
	err = engine.client.XAdd(ctx, &redis.XAddArgs{
		Stream: primary.(*Queue).Stream(),
		ID:     "*",
		Values: map[string]interface{}{"body": "not json"},
	}).Err()
	require.NoError(t, err)

	_, err = primary.Enqueue(ctx, map[string]interface{}{"ok": true})
	require.NoError(t, err)

	messages, err := primary.Fetch(ctx, 10, nonBlocking)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, true, messages[0].Payload["ok"])
}
