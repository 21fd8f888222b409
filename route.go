package webhookmq

import (
	"context"

	"webhookmq/queue"
)

// Handler processes one delivered event payload. The payload contains the
// original data keys plus the reserved metadata block under MetadataKey.
// Returning an error escalates the message to the route's dead-letter
// queue.
type Handler func(ctx context.Context, payload map[string]interface{}) error

// Route is one registered (path, handler, queue) binding. Routes are
// created by Register and live for the lifetime of the Webhook; there is no
// unregister operation.
type Route struct {
	path    string
	handler Handler
	queue   queue.Queue
}

// Path returns the route's normalized path.
func (r *Route) Path() string {
	return r.path
}

// Queue returns the durable queue bound to this route. The binding is fixed
// at registration time: the queue is always the one named by
// QueueName(r.Path()).
func (r *Route) Queue() queue.Queue {
	return r.queue
}
