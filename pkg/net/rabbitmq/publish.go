package rabbitmq

import (
	"context"
	"fmt"

	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publish emits the event on the shared exchange under its routing key
// and returns once the broker has accepted it for routing, not once a
// consumer has processed it. Ordering is guaranteed only within a single
// routing key on a single channel.
func (mq *RabbitMQ) Publish(ctx context.Context, e event.Event) error {
	return mq.publish(ctx, makeMessageFromEvent(e))
}

// ResilientPublish enqueues the event for publishing and returns an error
// only if the queue is full. Queued messages are retried until the broker
// accepts them, so callers must treat completion as eventual.
func (mq *RabbitMQ) ResilientPublish(_ context.Context, e event.Event) error {
	return mq.enqueue(makeMessageFromEvent(e))
}

// enqueue appends a message to the retry queue and returns a non-nil
// error if the queue is full.
func (mq *RabbitMQ) enqueue(msg Message) error {
	select {
	case mq.retryC <- msg:
		return nil
	default:
		return fmt.Errorf("publish queue is full")
	}
}

func (mq *RabbitMQ) publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	succeeded, err := mq.breaker.Allow()
	if err != nil {
		return err
	}

	ch, err := mq.channel()
	if err != nil {
		// Only connection loss counts against the breaker.
		succeeded(!isConnectionError(err))
		return err
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx,
		msg.ExchangeName, // exchange
		msg.RoutingKey,   // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  string(msg.ContentType),
			DeliveryMode: amqp.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         msg.Body,
		},
	)
	if err != nil {
		succeeded(!isConnectionError(err))
		return err
	}
	succeeded(true)

	metrics.EventsPublished.WithLabelValues(msg.RoutingKey).Inc()
	return nil
}
