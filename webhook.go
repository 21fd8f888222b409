// Package webhookmq provides a webhook-style request/dispatch layer on top
// of a durable queue engine. Producers call Send(path, data); consumers
// register handlers against URL-like paths; a processing loop drains each
// registered route's queue, invokes the matching handler, and acknowledges
// or escalates failures to a dead-letter queue.
//
// Producers and consumers never coordinate directly: both derive the queue
// identity deterministically from the path, so independently running
// processes converge on the same queue.
package webhookmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"webhookmq/internal/common/errors"
	"webhookmq/internal/common/logging"
	"webhookmq/internal/common/utils"
	"webhookmq/queue"
)

const defaultBatchSize = 10

// Webhook is the routing and message-processing engine. All state (the
// route registry, the busy flag, the running flag) is owned by the instance
// and guarded by a single mutex.
type Webhook struct {
	engine queue.Engine
	logger logging.Logger

	mu         sync.Mutex
	routes     []*Route
	processing bool // single-flight guard for blocking passes
	running    bool // continuous-mode state

	batchSize     int64
	interval      time.Duration
	retryAttempts int
	retryDelay    time.Duration
}

// Option configures a Webhook.
type Option func(*Webhook)

// WithLogger sets the logger used by the webhook and its processing loop.
func WithLogger(logger logging.Logger) Option {
	return func(w *Webhook) {
		w.logger = logger
	}
}

// WithBatchSize sets the maximum number of messages fetched per route per
// processing pass. Defaults to 10.
func WithBatchSize(n int64) Option {
	return func(w *Webhook) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithProcessInterval sets the blocking-fetch timeout used by the
// continuous processing loop. Defaults to one second.
func WithProcessInterval(d time.Duration) Option {
	return func(w *Webhook) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithHandlerRetry enables bounded in-pass retry of failing handlers before
// a message is escalated to the dead-letter queue: attempts invocations in
// total, delay apart. The default is a single attempt, matching the
// escalate-immediately behavior.
func WithHandlerRetry(attempts int, delay time.Duration) Option {
	return func(w *Webhook) {
		if attempts > 1 {
			w.retryAttempts = attempts
			w.retryDelay = delay
		}
	}
}

// New creates a Webhook on top of the given queue engine.
func New(engine queue.Engine, opts ...Option) *Webhook {
	w := &Webhook{
		engine:        engine,
		logger:        logging.GetGlobalLogger(),
		batchSize:     defaultBatchSize,
		interval:      time.Second,
		retryAttempts: 1,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Register binds handler to path. The path is normalized, its queue pair is
// created if needed, and the new route is appended to the registry.
//
// Registering the same path twice is accepted and creates a second binding
// on the same queue; messages on that queue are then split between the two
// handlers during processing passes.
func (w *Webhook) Register(ctx context.Context, path string, handler Handler) (*Route, error) {
	if handler == nil {
		return nil, errors.ValidationError("handler must not be nil")
	}

	normalized := NormalizePath(path)
	name := QueueName(normalized)

	q, _, err := w.engine.CreateQueuePair(ctx, name)
	if err != nil {
		w.logger.Error("failed to create queue pair for route", err,
			logging.String("path", normalized),
			logging.String("queue", name),
		)
		return nil, errors.ResolutionError("failed to create queue pair", err).
			WithContext("path", normalized)
	}

	route := &Route{path: normalized, handler: handler, queue: q}

	w.mu.Lock()
	w.routes = append(w.routes, route)
	w.mu.Unlock()

	w.logger.Info("route registered",
		logging.String("path", normalized),
		logging.String("queue", name),
	)
	return route, nil
}

// Send dispatches an event to path. The payload is shallow-copied, wrapped
// in the dispatch envelope, and enqueued on the queue derived from the
// normalized path; the queue pair is created on first use. Returns the
// engine-assigned message identifier.
//
// A queue resolution failure is logged and returned to the caller.
func (w *Webhook) Send(ctx context.Context, path string, data map[string]interface{}) (string, error) {
	normalized := NormalizePath(path)
	name := QueueName(normalized)

	q, err := w.engine.GetQueue(ctx, name)
	if err == nil && q == nil {
		q, _, err = w.engine.CreateQueuePair(ctx, name)
	}
	if err != nil {
		w.logger.Error("failed to resolve queue for send", err,
			logging.String("path", normalized),
			logging.String("queue", name),
		)
		return "", errors.ResolutionError("failed to resolve queue", err).
			WithContext("path", normalized)
	}

	return q.Enqueue(ctx, envelope(normalized, data))
}

// ProcessOnce runs a single processing pass: every registered route is
// visited in registration order, up to the batch size of pending messages
// is fetched per route (blocking up to timeout when block is true), and
// each message's handler outcome decides between acknowledgment and
// dead-letter escalation.
//
// If a blocking pass is requested while another blocking pass is in flight,
// the call returns 0 immediately. Per-route fetch failures are logged and
// skipped so one broken route does not stall the rest.
//
// Returns the number of successfully processed (acknowledged) messages.
func (w *Webhook) ProcessOnce(ctx context.Context, block bool, timeout time.Duration) int {
	w.mu.Lock()
	if w.processing && block {
		w.mu.Unlock()
		w.logger.Warn("processing pass already in flight")
		return 0
	}
	w.processing = true
	routes := make([]*Route, len(w.routes))
	copy(routes, w.routes)
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.processing = false
		w.mu.Unlock()
	}()

	blockFor := time.Duration(-1)
	if block {
		blockFor = timeout
	}

	processed := 0
	for _, route := range routes {
		messages, err := route.queue.Fetch(ctx, w.batchSize, blockFor)
		if err != nil {
			w.logger.Error("failed to fetch messages for route", err,
				logging.String("path", route.path),
			)
			continue
		}

		for _, msg := range messages {
			if herr := w.invoke(ctx, route, msg); herr != nil {
				w.escalate(ctx, route, msg, herr)
				continue
			}

			if err := route.queue.Acknowledge(ctx, msg.ID); err != nil {
				w.logger.Error("failed to acknowledge message", err,
					logging.String("path", route.path),
					logging.String("message_id", msg.ID),
				)
				continue
			}
			processed++
		}
	}

	return processed
}

// invoke runs the route handler, with bounded retry when configured.
func (w *Webhook) invoke(ctx context.Context, route *Route, msg queue.Message) error {
	if w.retryAttempts <= 1 {
		return route.handler(ctx, msg.Payload)
	}
	return utils.Retry(ctx, w.retryAttempts, w.retryDelay, func() error {
		return route.handler(ctx, msg.Payload)
	})
}

// escalate moves a message whose handler failed into the route's
// dead-letter queue. When no dead-letter queue exists the failure is only
// logged and the message stays pending on the primary queue.
func (w *Webhook) escalate(ctx context.Context, route *Route, msg queue.Message, herr error) {
	w.logger.Error("handler failed", herr,
		logging.String("path", route.path),
		logging.String("message_id", msg.ID),
	)

	dlq, err := w.engine.GetDeadLetterQueue(ctx, QueueName(route.path))
	if err != nil {
		w.logger.Error("failed to look up dead-letter queue", err,
			logging.String("path", route.path),
		)
		return
	}
	if dlq == nil {
		w.logger.Warn("no dead-letter queue for route, message left pending",
			logging.String("path", route.path),
			logging.String("message_id", msg.ID),
		)
		return
	}

	reason := fmt.Sprintf("processing error: %v", herr)
	if err := route.queue.MoveToDeadLetter(ctx, []string{msg.ID}, reason, dlq); err != nil {
		w.logger.Error("failed to move message to dead-letter queue", err,
			logging.String("path", route.path),
			logging.String("message_id", msg.ID),
		)
	}
}

// Start runs the continuous processing loop in the calling goroutine:
// blocking passes with the configured interval as fetch timeout, until ctx
// is cancelled or Stop is called. Cancellation is cooperative; an in-flight
// pass finishes before the loop exits.
func (w *Webhook) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Warn("processing loop already running")
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("processing started",
		logging.Duration("interval", w.interval),
	)

	for {
		select {
		case <-ctx.Done():
			w.Stop()
		default:
		}

		w.mu.Lock()
		running := w.running
		routeCount := len(w.routes)
		w.mu.Unlock()
		if !running {
			break
		}

		w.ProcessOnce(ctx, true, w.interval)

		// With no routes a pass returns immediately; pace the loop so it
		// does not spin while waiting for registrations.
		if routeCount == 0 {
			select {
			case <-ctx.Done():
			case <-time.After(w.interval):
			}
		}
	}

	w.logger.Info("processing stopped")
}

// Stop signals the continuous processing loop to exit after its current
// pass. It never interrupts an in-flight blocking fetch.
func (w *Webhook) Stop() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// Health reports whether the queue engine's backing store is reachable.
func (w *Webhook) Health(ctx context.Context) error {
	return w.engine.Health(ctx)
}

// Close stops the processing loop and releases the queue engine connection.
func (w *Webhook) Close() error {
	w.Stop()
	return w.engine.Close()
}
