package rabbitmq

import (
	"time"
)

type Config struct {
	QueueSize         int           // Max number of messages internally queued for republishing.
	ReconnectInterval time.Duration // Time between reconnect attempts.
	StartupAttempts   int           // Dial attempts before Run gives up.
	PrefetchCount     int           // Per-consumer unacknowledged message limit.
	MaxRetries        int           // Delivery attempts before a message is dead-lettered.

	// Settings for the internal circuit breaker.
	MaxRequests   uint32        // Number of requests allowed in half-open state.
	ClearInterval time.Duration // Time after which the failed calls count is cleared.
	ClosedTimeout time.Duration // Time after which open state becomes half-open.
}

func DefaultConfig() Config {
	return Config{
		QueueSize:         100,
		ReconnectInterval: time.Second * 2,
		StartupAttempts:   5,
		PrefetchCount:     1,
		MaxRetries:        3,
		MaxRequests:       10,
		ClearInterval:     time.Second * 10,
		ClosedTimeout:     time.Second * 10,
	}
}
