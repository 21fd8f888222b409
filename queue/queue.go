// Package queue defines the durable queue engine contract that backs the
// webhook dispatch and processing layer. An engine manages named queue pairs
// (a primary queue plus its associated dead-letter queue) and hands out
// queue handles for enqueueing, fetching, acknowledging, and escalating
// messages.
//
// The Redis Streams implementation lives in queue/redis.
package queue

import (
	"context"
	"time"
)

// Message is one pending entry fetched from a queue.
type Message struct {
	// ID is the engine-assigned message identifier.
	ID string
	// Payload is the decoded message body.
	Payload map[string]interface{}
}

// Queue is a handle to a single durable queue.
type Queue interface {
	// Name returns the derived queue name this handle is bound to.
	Name() string

	// Enqueue appends a payload to the queue and returns the
	// engine-assigned message identifier.
	Enqueue(ctx context.Context, payload map[string]interface{}) (string, error)

	// Fetch returns up to count pending messages. A negative block means a
	// non-blocking fetch; zero blocks indefinitely; a positive duration
	// blocks up to that long. An empty queue yields an empty result, not an
	// error.
	Fetch(ctx context.Context, count int64, block time.Duration) ([]Message, error)

	// Acknowledge removes the given messages from the pending set.
	Acknowledge(ctx context.Context, ids ...string) error

	// MoveToDeadLetter copies the given messages into dlq carrying reason,
	// then removes them from this queue's pending set. Moving is the
	// terminal disposition; no separate acknowledgment is needed.
	MoveToDeadLetter(ctx context.Context, ids []string, reason string, dlq Queue) error
}

// Engine manages named queues and their dead-letter counterparts. The
// name-to-queue mapping is deterministic, so independently running producers
// and consumers converge on the same queue without coordination.
type Engine interface {
	// CreateQueuePair gets or creates the primary and dead-letter queues
	// for name. It is idempotent and safe under concurrent callers racing
	// on a previously-unused name.
	CreateQueuePair(ctx context.Context, name string) (Queue, Queue, error)

	// GetQueue returns the primary queue for name, or nil when no queue
	// pair has been created for it.
	GetQueue(ctx context.Context, name string) (Queue, error)

	// GetDeadLetterQueue returns the dead-letter queue for name, or nil
	// when no queue pair has been created for it.
	GetDeadLetterQueue(ctx context.Context, name string) (Queue, error)

	// Health reports whether the backing store is reachable.
	Health(ctx context.Context) error

	// Close releases the engine's connection to the backing store.
	Close() error
}
