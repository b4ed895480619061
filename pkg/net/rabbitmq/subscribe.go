package rabbitmq

import (
	"context"
	"time"

	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// retryCountHeader tracks how many times a delivery was rerun after
	// a handler error. Retried messages travel through the default
	// exchange straight back to their queue, so the original routing
	// key is preserved in a header.
	retryCountHeader  = "x-retry-count"
	originalKeyHeader = "x-original-routing-key"
)

// Subscribe declares a durable queue, binds it to every pattern the
// dispatcher has handlers for and starts consuming. Deliveries are acked
// only after all matching handlers succeed; on handler error the message
// is retried up to Config.MaxRetries attempts and then dead-lettered.
//
// Consumption survives broker restarts: when the delivery stream closes
// unexpectedly the subscription re-establishes itself until ctx is done.
func (mq *RabbitMQ) Subscribe(ctx context.Context, queue string, dispatcher *event.Dispatcher) error {
	deliveries, err := mq.setUpConsumer(queue, dispatcher.Patterns())
	if err != nil {
		return err
	}

	go mq.handleDeliveries(ctx, queue, dispatcher, deliveries)
	return nil
}

func (mq *RabbitMQ) setUpConsumer(queue string, patterns []string) (<-chan amqp.Delivery, error) {
	ch, err := mq.channel()
	if err != nil {
		return nil, err
	}

	if err := ch.Qos(mq.config.PrefetchCount, 0, false); err != nil {
		ch.Close()
		return nil, err
	}

	q, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-dead-letter-exchange": DeadLetterExchange},
	)
	if err != nil {
		ch.Close()
		return nil, err
	}

	for _, pattern := range patterns {
		err = ch.QueueBind(
			q.Name,       // queue name
			pattern,      // routing key
			ExchangeName, // exchange
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			ch.Close()
			return nil, err
		}
	}

	deliveries, err := ch.Consume(
		q.Name, // queue
		queue,  // consumer tag
		false,  // auto ack
		false,  // exclusive
		false,  // no local
		false,  // no wait
		nil,    // args
	)
	if err != nil {
		ch.Close()
		return nil, err
	}

	return deliveries, nil
}

func (mq *RabbitMQ) handleDeliveries(ctx context.Context, queue string, dispatcher *event.Dispatcher, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return

		case delivery, ok := <-deliveries:
			if !ok {
				// Delivery stream lost together with its channel or
				// connection. Re-establish the whole consumer.
				var err error
				for {
					deliveries, err = mq.setUpConsumer(queue, dispatcher.Patterns())
					if err == nil {
						break
					}
					mq.logger.Log("Failed to re-establish consumer", "queue", queue, "err", err)

					select {
					case <-ctx.Done():
						return
					case <-time.After(mq.config.ReconnectInterval):
					}
				}
				continue
			}

			mq.handleDelivery(ctx, queue, dispatcher, delivery)
		}
	}
}

func (mq *RabbitMQ) handleDelivery(ctx context.Context, queue string, dispatcher *event.Dispatcher, delivery amqp.Delivery) {
	e := event.Event{
		Type:      originalType(delivery),
		Body:      delivery.Body,
		Timestamp: delivery.Timestamp,
	}

	// Malformed payloads are not retried: redelivery cannot fix them.
	if err := event.Validate(e); err != nil {
		mq.logger.Log("Dead-lettering malformed event", "queue", queue, "routingKey", e.Type, "err", err)
		mq.reject(delivery, string(e.Type))
		return
	}

	if err := dispatcher.Dispatch(ctx, e); err != nil {
		mq.retryOrReject(queue, delivery, e, err)
		return
	}

	if err := delivery.Ack(false); err != nil {
		mq.logger.Log("Failed to ack delivery", "queue", queue, "routingKey", e.Type, "err", err)
		return
	}
	metrics.EventsConsumed.WithLabelValues(string(e.Type), "ok").Inc()
}

// retryOrReject reruns a failed delivery a bounded number of times before
// handing it to the dead-letter exchange. The rerun is a republish to the
// same queue with a bumped retry counter; the original delivery is acked
// so one poison message never blocks the queue.
func (mq *RabbitMQ) retryOrReject(queue string, delivery amqp.Delivery, e event.Event, handlerErr error) {
	attempt := retryCount(delivery.Headers) + 1

	if attempt >= mq.config.MaxRetries {
		mq.logger.Log("Dead-lettering event after retries",
			"queue", queue, "routingKey", e.Type, "attempts", attempt, "err", handlerErr)
		mq.reject(delivery, string(e.Type))
		return
	}

	mq.logger.Log("Retrying event after handler error",
		"queue", queue, "routingKey", e.Type, "attempt", attempt, "err", handlerErr)

	err := mq.requeue(queue, delivery, e, attempt)
	if err != nil {
		mq.logger.Log("Failed to requeue delivery, leaving it for redelivery",
			"queue", queue, "routingKey", e.Type, "err", err)
		// Nack with requeue so the broker redelivers; retry count is not
		// bumped but the message is not lost.
		if err := delivery.Nack(false, true); err != nil {
			mq.logger.Log("Failed to nack delivery", "queue", queue, "err", err)
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		mq.logger.Log("Failed to ack retried delivery", "queue", queue, "err", err)
	}
	metrics.EventsConsumed.WithLabelValues(string(e.Type), "retried").Inc()
}

func (mq *RabbitMQ) requeue(queue string, delivery amqp.Delivery, e event.Event, attempt int) error {
	ch, err := mq.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	return ch.PublishWithContext(ctx,
		"",    // default exchange routes by queue name
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  delivery.ContentType,
			DeliveryMode: amqp.Persistent,
			Timestamp:    delivery.Timestamp,
			Body:         delivery.Body,
			Headers: amqp.Table{
				retryCountHeader:  int32(attempt),
				originalKeyHeader: string(e.Type),
			},
		},
	)
}

// reject nacks without requeue so the queue's dead-letter exchange
// picks the message up.
func (mq *RabbitMQ) reject(delivery amqp.Delivery, routingKey string) {
	if err := delivery.Nack(false, false); err != nil {
		mq.logger.Log("Failed to nack delivery", "routingKey", routingKey, "err", err)
		return
	}
	metrics.EventsConsumed.WithLabelValues(routingKey, "dead_lettered").Inc()
}

func originalType(delivery amqp.Delivery) event.Type {
	if v, ok := delivery.Headers[originalKeyHeader].(string); ok && v != "" {
		return event.Type(v)
	}
	return event.Type(delivery.RoutingKey)
}

func retryCount(headers amqp.Table) int {
	switch v := headers[retryCountHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
