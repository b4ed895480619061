package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/logging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
)

const (
	// ExchangeName is the shared topic exchange all domain events go
	// through. Every service declares it on connect; declaration is
	// idempotent as long as the parameters match.
	ExchangeName = "driftline.events"
	ExchangeType = amqp.ExchangeTopic

	// Deliveries rejected after exhausting retries end up here.
	DeadLetterExchange = "driftline.events.dlx"
	DeadLetterQueue    = "driftline.dead-letter"
)

var _ event.Broker = (*RabbitMQ)(nil)

type RabbitMQ struct {
	url    string
	config Config

	mu   sync.Mutex // Guards conn so only one (re)connection attempt proceeds at a time.
	conn *amqp.Connection

	retryC  chan Message // Queue for messages waiting to be republished.
	breaker *gobreaker.TwoStepCircuitBreaker
	logger  logging.Logger
}

func NewRabbitMQ(url string, config Config, logger logging.Logger) *RabbitMQ {
	st := gobreaker.Settings{
		Name:        "rabbitmq",
		MaxRequests: config.MaxRequests,
		Interval:    config.ClearInterval,
		Timeout:     config.ClosedTimeout,
	}

	return &RabbitMQ{
		url:     url,
		config:  config,
		retryC:  make(chan Message, config.QueueSize),
		breaker: gobreaker.NewTwoStepCircuitBreaker(st),
		logger:  logger,
	}
}

// Run establishes the initial connection and starts the republish loop.
// It fails after the configured number of startup attempts so a service
// does not serve traffic with a silently non-functional event path.
func (mq *RabbitMQ) Run(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < mq.config.StartupAttempts; attempt++ {
		if _, err = mq.connection(); err == nil {
			break
		}

		mq.logger.Log("Failed to connect to RabbitMQ", "attempt", attempt+1, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(mq.config.ReconnectInterval):
		}
	}
	if err != nil {
		return fmt.Errorf("rabbitmq unreachable after %d attempts: %w", mq.config.StartupAttempts, err)
	}

	go mq.runRetryQueue(ctx)
	return nil
}

// connection returns the active connection, dialing and declaring the
// exchange topology if the previous one was closed. Safe for concurrent
// use; callers never see a permanently broken handle as long as the
// broker eventually recovers.
func (mq *RabbitMQ) connection() (*amqp.Connection, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.conn != nil && !mq.conn.IsClosed() {
		return mq.conn, nil
	}

	succeeded, err := mq.breaker.Allow()
	if err != nil {
		return nil, err
	}
	conn, err := amqp.Dial(mq.url)
	succeeded(err == nil)
	if err != nil {
		return nil, err
	}

	if err := declareTopology(conn); err != nil {
		conn.Close()
		return nil, err
	}

	mq.conn = conn
	return mq.conn, nil
}

// channel opens a fresh channel on the shared connection, reconnecting
// first if needed. Channels are cheap; each operation opens and closes
// its own.
func (mq *RabbitMQ) channel() (*amqp.Channel, error) {
	conn, err := mq.connection()
	if err != nil {
		return nil, err
	}
	return conn.Channel()
}

func declareTopology(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return err
	}

	err = ch.ExchangeDeclare(
		DeadLetterExchange,
		amqp.ExchangeFanout,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.QueueBind(DeadLetterQueue, "", DeadLetterExchange, false, nil)
}

// runRetryQueue republishes queued messages until the broker accepts them.
func (mq *RabbitMQ) runRetryQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-mq.retryC:
			for {
				err := mq.publish(ctx, msg)
				if err == nil {
					break
				}
				mq.logger.Log("Failed to republish a message", "routingKey", msg.RoutingKey, "err", err)

				select {
				case <-ctx.Done():
					return
				case <-time.After(mq.config.ReconnectInterval):
				}
			}
		}
	}
}

// Close shuts the active connection down gracefully.
func (mq *RabbitMQ) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.conn != nil && !mq.conn.IsClosed() {
		mq.logger.Log("Closing active RabbitMQ connection")
		return mq.conn.Close()
	}
	return nil
}
