package rabbitmq

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// isConnectionError reports whether an error means the underlying
// connection is gone and the next operation must redial.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, amqp.ErrClosed) {
		return true
	}

	var aerr *amqp.Error
	if !errors.As(err, &aerr) {
		return false
	}

	switch aerr.Code {
	case amqp.ConnectionForced,
		amqp.InvalidPath,
		amqp.FrameError,
		amqp.SyntaxError,
		amqp.CommandInvalid,
		amqp.ChannelError,
		amqp.UnexpectedFrame,
		amqp.ResourceError,
		amqp.InternalError:
		return true
	}
	return false
}
