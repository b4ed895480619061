package postgres

import (
	"context"
	_ "embed"

	"github.com/driftline/driftline/pkg/entity"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/media"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var _ media.MetadataStore = (*Metadata)(nil)

type Metadata struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

func MakeMetadata(ctx context.Context, dsn string, logger logging.Logger) (*Metadata, error) {
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

	return &Metadata{
		pool:   pool,
		logger: logger,
	}, nil
}

func (m *Metadata) Close() error {
	m.pool.Close()
	return nil
}

func (m *Metadata) Create(ctx context.Context, media entity.Media) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO media (id, author_id, object_key, original_name, mime_type, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		media.Id, media.AuthorId, media.ObjectKey, media.OriginalName, media.MimeType, media.URL, media.CreatedAt,
	)
	return err
}

func (m *Metadata) GetByAuthor(ctx context.Context, authorId string) ([]entity.Media, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT id, author_id, object_key, original_name, mime_type, url, created_at
		FROM media
		WHERE author_id = $1
		ORDER BY created_at DESC`,
		authorId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.Media
	for rows.Next() {
		var item entity.Media
		err := rows.Scan(&item.Id, &item.AuthorId, &item.ObjectKey, &item.OriginalName, &item.MimeType, &item.URL, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (m *Metadata) DeleteByObjectKey(ctx context.Context, objectKey string) error {
	_, err := m.pool.Exec(ctx, `DELETE FROM media WHERE object_key = $1`, objectKey)
	return err
}
