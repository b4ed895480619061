package event

import (
	"context"
	"io"
)

type Broker interface {
	Publisher
	Subscriber
	io.Closer
}

type Publisher interface {
	// Publish returns once the broker has accepted the event for routing.
	// Delivery to consumers is at-least-once, not exactly-once.
	Publish(context.Context, Event) error

	// ResilientPublish returns an error only if the event could not be
	// serialized or the internal retry queue is full. On any other
	// failure the event is retried until the broker accepts it.
	ResilientPublish(context.Context, Event) error
}

type Subscriber interface {
	// Subscribe binds a durable queue to the dispatcher's registered
	// routing-key patterns and dispatches each delivery to matching
	// handlers. Handlers must be idempotent: delivery is at-least-once.
	Subscribe(ctx context.Context, queue string, dispatcher *Dispatcher) error
}

// HandlerFunc is invoked for each received event. A non-nil error rejects
// the delivery for bounded retry and eventual dead-lettering.
type HandlerFunc func(ctx context.Context, e Event) error
