package postgres

import (
	"context"
	_ "embed"

	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/search"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed schema.sql
var schema string

var _ search.Index = (*Index)(nil)

// Index stores the search projection in Postgres, full-text matching via
// a generated tsvector column.
type Index struct {
	pool   *pgxpool.Pool
	logger logging.Logger
	tracer trace.Tracer
}

func MakeIndex(ctx context.Context, dsn string, logger logging.Logger, tracer trace.Tracer) (*Index, error) {
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

	return &Index{
		pool:   pool,
		logger: logger,
		tracer: tracer,
	}, nil
}

func (idx *Index) Close() error {
	idx.pool.Close()
	return nil
}

func (idx *Index) Upsert(ctx context.Context, entry search.Entry) (err error) {
	ctx, span := idx.tracer.Start(ctx, "searchindex.Upsert")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	_, err = idx.pool.Exec(ctx, `
		INSERT INTO search_posts (content_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_id) DO UPDATE
		SET author_id = EXCLUDED.author_id,
		    body = EXCLUDED.body,
		    created_at = EXCLUDED.created_at`,
		entry.ContentId, entry.AuthorId, entry.Body, entry.CreatedAt,
	)
	return err
}

func (idx *Index) Delete(ctx context.Context, contentId string) (err error) {
	ctx, span := idx.tracer.Start(ctx, "searchindex.Delete")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	_, err = idx.pool.Exec(ctx, `DELETE FROM search_posts WHERE content_id = $1`, contentId)
	return err
}

func (idx *Index) Search(ctx context.Context, query string, limit int) (_ []search.Entry, err error) {
	ctx, span := idx.tracer.Start(ctx, "searchindex.Search")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	rows, err := idx.pool.Query(ctx, `
		SELECT content_id, author_id, body, created_at,
		       ts_rank(tsv, query) AS score
		FROM search_posts, plainto_tsquery('english', $1) AS query
		WHERE tsv @@ query
		ORDER BY score DESC
		LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]search.Entry, 0, limit)
	for rows.Next() {
		var entry search.Entry
		if err := rows.Scan(&entry.ContentId, &entry.AuthorId, &entry.Body, &entry.CreatedAt, &entry.Score); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func recordSpanErr(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
