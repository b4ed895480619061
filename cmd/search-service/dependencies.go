package main

import (
	"context"

	"github.com/driftline/driftline/pkg/config"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/net/rabbitmq"
	"github.com/driftline/driftline/pkg/search/postgres"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "search-service"

type dependencies struct {
	Index  *postgres.Index
	Broker *rabbitmq.RabbitMQ
	Tracer trace.Tracer
}

func getServiceDependencies(ctx context.Context, cfg config.SearchService, logger logging.Logger) (dependencies, error) {
	tracer := otel.Tracer(serviceName)

	index, err := postgres.MakeIndex(ctx, cfg.Postgres.DSN, logger, tracer)
	if err != nil {
		return dependencies{}, err
	}

	mqConfig := rabbitmq.DefaultConfig()
	mqConfig.StartupAttempts = cfg.RabbitMQ.StartupAttempts
	mqConfig.PrefetchCount = cfg.RabbitMQ.PrefetchCount
	mqConfig.MaxRetries = cfg.RabbitMQ.MaxRetries

	broker := rabbitmq.NewRabbitMQ(cfg.RabbitMQ.URL, mqConfig, logger)

	return dependencies{
		Index:  index,
		Broker: broker,
		Tracer: tracer,
	}, nil
}

func (d dependencies) Close(logger logging.Logger) {
	if err := d.Broker.Close(); err != nil {
		logger.Log("Failed to close broker connection", "err", err)
	}
	if d.Index != nil {
		d.Index.Close()
	}
}
