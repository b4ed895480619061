package rabbitmq

import (
	"time"

	"github.com/driftline/driftline/pkg/event"
)

type ContentType string

const (
	ContentTypeJson ContentType = "application/json"
	ContentTypeText ContentType = "text/plain"
)

type Message struct {
	Route

	Body        []byte
	ContentType ContentType
	Timestamp   time.Time
}

type Route struct {
	ExchangeName string
	ExchangeType string
	RoutingKey   string
}

// makeMessageFromEvent maps an event onto the wire: the payload is the
// message body and the event type is the routing key under the shared
// exchange.
func makeMessageFromEvent(e event.Event) Message {
	return Message{
		Body:        e.Body,
		ContentType: ContentTypeJson,
		Timestamp:   e.Timestamp,
		Route:       makeRouteFromEvent(e),
	}
}

func makeRouteFromEvent(e event.Event) Route {
	return Route{
		ExchangeName: ExchangeName,
		ExchangeType: ExchangeType,
		RoutingKey:   string(e.Type),
	}
}
