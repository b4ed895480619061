package main

import (
	"context"

	"github.com/driftline/driftline/pkg/config"
	"github.com/driftline/driftline/pkg/logging"
	mediapg "github.com/driftline/driftline/pkg/media/postgres"
	"github.com/driftline/driftline/pkg/media/s3"
	"github.com/driftline/driftline/pkg/net/rabbitmq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "media-service"

type dependencies struct {
	Objects  *s3.Store
	Metadata *mediapg.Metadata
	Broker   *rabbitmq.RabbitMQ
	Tracer   trace.Tracer
}

func getServiceDependencies(ctx context.Context, cfg config.MediaService, logger logging.Logger) (dependencies, error) {
	tracer := otel.Tracer(serviceName)

	objects, err := s3.New(ctx, s3.Config{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		Endpoint:        cfg.S3.Endpoint,
		UsePathStyle:    cfg.S3.UsePathStyle,
	})
	if err != nil {
		return dependencies{}, err
	}

	metadata, err := mediapg.MakeMetadata(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		return dependencies{}, err
	}

	mqConfig := rabbitmq.DefaultConfig()
	mqConfig.StartupAttempts = cfg.RabbitMQ.StartupAttempts
	mqConfig.PrefetchCount = cfg.RabbitMQ.PrefetchCount
	mqConfig.MaxRetries = cfg.RabbitMQ.MaxRetries

	broker := rabbitmq.NewRabbitMQ(cfg.RabbitMQ.URL, mqConfig, logger)

	return dependencies{
		Objects:  objects,
		Metadata: metadata,
		Broker:   broker,
		Tracer:   tracer,
	}, nil
}

func (d dependencies) Close(logger logging.Logger) {
	if err := d.Broker.Close(); err != nil {
		logger.Log("Failed to close broker connection", "err", err)
	}
	if d.Metadata != nil {
		d.Metadata.Close()
	}
}
