package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"webhookmq/internal/common/errors"
	"webhookmq/internal/common/logging"
	"webhookmq/queue"
)

// bodyField is the stream field carrying the JSON-encoded payload.
const bodyField = "body"

// Queue implements queue.Queue over a single Redis stream.
type Queue struct {
	name     string
	stream   string
	group    string
	consumer string
	maxLen   int64
	client   *redis.Client
	logger   logging.Logger
}

// Name returns the derived queue name this handle is bound to.
func (q *Queue) Name() string {
	return q.name
}

// Stream returns the full Redis key of the backing stream.
func (q *Queue) Stream() string {
	return q.stream
}

// Enqueue JSON-encodes payload and appends it to the stream, trimming to the
// configured maximum length when one is set. Returns the stream entry ID.
func (q *Queue) Enqueue(ctx context.Context, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.ValidationError(fmt.Sprintf("payload is not JSON-encodable: %v", err))
	}

	args := &redis.XAddArgs{
		Stream: q.stream,
		ID:     "*",
		Values: map[string]interface{}{
			bodyField:     string(body),
			"enqueued_at": time.Now().UnixNano(),
		},
	}
	if q.maxLen > 0 {
		args.MaxLen = q.maxLen
		args.Approx = true
	}

	id, err := q.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", errors.InternalError("failed to append message to stream", err).
			WithContext("stream", q.stream)
	}

	q.logger.Debug("message enqueued",
		logging.String("stream", q.stream),
		logging.String("id", id),
	)
	return id, nil
}

// Fetch reads up to count not-yet-delivered messages through the consumer
// group. A negative block performs a non-blocking read; zero blocks
// indefinitely. An empty stream yields an empty result.
func (q *Queue) Fetch(ctx context.Context, count int64, block time.Duration) ([]queue.Message, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.InternalError("failed to read from stream", err).
			WithContext("stream", q.stream)
	}

	var messages []queue.Message
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			payload, derr := decodePayload(entry.Values)
			if derr != nil {
				q.logger.Warn("skipping message with undecodable body",
					logging.String("stream", q.stream),
					logging.String("id", entry.ID),
					logging.Err(derr),
				)
				continue
			}
			messages = append(messages, queue.Message{ID: entry.ID, Payload: payload})
		}
	}
	return messages, nil
}

// Acknowledge removes the given entries from the consumer group's pending
// set.
func (q *Queue) Acknowledge(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := q.client.XAck(ctx, q.stream, q.group, ids...).Err(); err != nil {
		return errors.InternalError("failed to acknowledge messages", err).
			WithContext("stream", q.stream)
	}
	return nil
}

// MoveToDeadLetter copies the given entries into dlq with the failure reason
// and origin attached, then acknowledges them on this queue. Entries that
// have already been trimmed from the stream are acknowledged without a copy.
func (q *Queue) MoveToDeadLetter(ctx context.Context, ids []string, reason string, dlq queue.Queue) error {
	target, ok := dlq.(*Queue)
	if !ok {
		return errors.ValidationError("dead-letter queue is not a Redis stream queue")
	}

	for _, id := range ids {
		entries, err := q.client.XRange(ctx, q.stream, id, id).Result()
		if err != nil {
			return errors.InternalError("failed to read message for dead-letter move", err).
				WithContext("stream", q.stream).
				WithContext("id", id)
		}

		if len(entries) > 0 {
			values := make(map[string]interface{}, len(entries[0].Values)+4)
			for k, v := range entries[0].Values {
				values[k] = v
			}
			values["reason"] = reason
			values["failed_at"] = time.Now().UnixNano()
			values["origin_stream"] = q.stream
			values["origin_id"] = id

			if err := q.client.XAdd(ctx, &redis.XAddArgs{
				Stream: target.stream,
				ID:     "*",
				Values: values,
			}).Err(); err != nil {
				return errors.InternalError("failed to append message to dead-letter stream", err).
					WithContext("stream", target.stream).
					WithContext("id", id)
			}
		}

		if err := q.client.XAck(ctx, q.stream, q.group, id).Err(); err != nil {
			return errors.InternalError("failed to acknowledge moved message", err).
				WithContext("stream", q.stream).
				WithContext("id", id)
		}

		q.logger.Info("message moved to dead-letter queue",
			logging.String("queue", q.name),
			logging.String("id", id),
			logging.String("reason", reason),
		)
	}

	return nil
}

// decodePayload extracts and unmarshals the JSON body from a stream entry.
func decodePayload(values map[string]interface{}) (map[string]interface{}, error) {
	raw, ok := values[bodyField]
	if !ok {
		return nil, fmt.Errorf("stream entry has no %q field", bodyField)
	}

	body, ok := raw.(string)
	if !ok {
		body = fmt.Sprintf("%v", raw)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("invalid message body: %w", err)
	}
	return payload, nil
}
