package postgres

import (
	"context"
	"time"

	"github.com/driftline/driftline/pkg/event"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func appendEvent(ctx context.Context, tx pgx.Tx, e event.Event) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO event_log (routing_key, payload, created_at)
		VALUES ($1, $2, $3)`,
		string(e.Type), e.Body, e.Timestamp,
	)
	return err
}

// Since returns events appended after the given time, oldest first.
func (db *Postgres) Since(ctx context.Context, since time.Time) (_ []event.Event, err error) {
	ctx, span := db.tracer.Start(ctx, "postgres.Since")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	rows, err := db.pool.Query(ctx, `
		SELECT routing_key, payload, created_at
		FROM event_log
		WHERE created_at > $1
		ORDER BY id ASC`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			routingKey string
			e          event.Event
		)
		if err := rows.Scan(&routingKey, &e.Body, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Type = event.Type(routingKey)
		events = append(events, e)
	}

	return events, rows.Err()
}

// Prune drops event-log rows older than the retention horizon.
func (db *Postgres) Prune(ctx context.Context, before time.Time) (err error) {
	ctx, span := db.tracer.Start(ctx, "postgres.Prune")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	_, err = db.pool.Exec(ctx, `DELETE FROM event_log WHERE created_at < $1`, before)
	return err
}

func recordSpanErr(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
