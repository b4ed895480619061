package postgres

import (
	"context"
	_ "embed"

	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
)

//go:embed schema.sql
var schema string

var _ storage.Storage = (*Postgres)(nil)

type Postgres struct {
	pool   *pgxpool.Pool
	logger logging.Logger
	tracer trace.Tracer
}

func MakeDB(ctx context.Context, dsn string, logger logging.Logger, tracer trace.Tracer) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{
		pool:   pool,
		logger: logger,
		tracer: tracer,
	}, nil
}

func (db *Postgres) Close() error {
	db.pool.Close()
	return nil
}
