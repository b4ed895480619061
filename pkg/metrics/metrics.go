package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftline_events_published_total",
			Help: "Domain events accepted by the broker, by routing key",
		},
		[]string{"routing_key"},
	)

	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftline_events_consumed_total",
			Help: "Domain events handled, by routing key and outcome",
		},
		[]string{"routing_key", "outcome"}, // ok|retried|dead_lettered
	)

	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftline_cache_requests_total",
			Help: "Cache-aside lookups, by result",
		},
		[]string{"result"}, // hit|miss|error
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		EventsPublished,
		EventsConsumed,
		CacheRequests,
	)
}
