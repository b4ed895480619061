package main

import (
	"context"

	"github.com/driftline/driftline/pkg/cache"
	"github.com/driftline/driftline/pkg/config"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/net/rabbitmq"
	"github.com/driftline/driftline/pkg/storage/postgres"
	"go.opentelemetry.io/otel"
)

const serviceName = "post-service"

type dependencies struct {
	Storage *postgres.Postgres
	Cache   cache.Cache
	Broker  *rabbitmq.RabbitMQ
}

func getServiceDependencies(ctx context.Context, cfg config.PostService, logger logging.Logger) (dependencies, error) {
	tracer := otel.Tracer(serviceName)

	storage, err := postgres.MakeDB(ctx, cfg.Postgres.DSN, logger, tracer)
	if err != nil {
		return dependencies{}, err
	}

	postCache, err := cache.MakeCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger, tracer)
	if err != nil {
		return dependencies{}, err
	}

	mqConfig := rabbitmq.DefaultConfig()
	mqConfig.StartupAttempts = cfg.RabbitMQ.StartupAttempts
	mqConfig.PrefetchCount = cfg.RabbitMQ.PrefetchCount
	mqConfig.MaxRetries = cfg.RabbitMQ.MaxRetries

	broker := rabbitmq.NewRabbitMQ(cfg.RabbitMQ.URL, mqConfig, logger)

	return dependencies{
		Storage: storage,
		Cache:   postCache,
		Broker:  broker,
	}, nil
}

func (d dependencies) Close(logger logging.Logger) {
	if err := d.Broker.Close(); err != nil {
		logger.Log("Failed to close broker connection", "err", err)
	}
	if err := d.Cache.Close(); err != nil {
		logger.Log("Failed to close cache client", "err", err)
	}
	if d.Storage != nil {
		d.Storage.Close()
	}
}
