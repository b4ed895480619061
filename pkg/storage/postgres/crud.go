package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/driftline/driftline/pkg/entity"
	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/storage"
	"github.com/jackc/pgx/v5"
)

// Create inserts the post and appends the matching content.created event
// to the event log in the same transaction, so the reconciliation sweep
// can replay the event if the broker publish never happens.
func (db *Postgres) Create(ctx context.Context, post entity.Post) (err error) {
	ctx, span := db.tracer.Start(ctx, "postgres.Create")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO posts (id, author_id, body, media_refs, created_at)
		VALUES ($1, $2, $3, COALESCE($4, '{}'), $5)`,
		post.Id, post.AuthorId, post.Body, post.MediaRefs, post.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := appendEvent(ctx, tx, event.MakeContentCreated(post)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *Postgres) Get(ctx context.Context, id string) (_ entity.Post, err error) {
	ctx, span := db.tracer.Start(ctx, "postgres.Get")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	var post entity.Post
	err = db.pool.QueryRow(ctx, `
		SELECT id, author_id, body, media_refs, created_at
		FROM posts
		WHERE id = $1`,
		id,
	).Scan(&post.Id, &post.AuthorId, &post.Body, &post.MediaRefs, &post.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Post{}, storage.ErrNotFound
		}
		return entity.Post{}, err
	}

	return post, nil
}

func (db *Postgres) GetMultiple(ctx context.Context, page, pageSize int) (_ []entity.Post, err error) {
	ctx, span := db.tracer.Start(ctx, "postgres.GetMultiple")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("invalid page %d or page size %d", page, pageSize)
	}

	rows, err := db.pool.Query(ctx, `
		SELECT id, author_id, body, media_refs, created_at
		FROM posts
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`,
		(page-1)*pageSize, pageSize,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]entity.Post, 0, pageSize)
	for rows.Next() {
		var post entity.Post
		if err := rows.Scan(&post.Id, &post.AuthorId, &post.Body, &post.MediaRefs, &post.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (db *Postgres) Count(ctx context.Context) (_ int, err error) {
	ctx, span := db.tracer.Start(ctx, "postgres.Count")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	var count int
	err = db.pool.QueryRow(ctx, `SELECT count(*) FROM posts`).Scan(&count)
	return count, err
}

// Delete removes the post, returning its last state, and appends the
// content.deleted event within the same transaction.
func (db *Postgres) Delete(ctx context.Context, id, authorId string) (_ entity.Post, err error) {
	ctx, span := db.tracer.Start(ctx, "postgres.Delete")
	defer span.End()
	defer func() { recordSpanErr(span, err) }()

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return entity.Post{}, err
	}
	defer tx.Rollback(ctx)

	var post entity.Post
	err = tx.QueryRow(ctx, `
		DELETE FROM posts
		WHERE id = $1 AND author_id = $2
		RETURNING id, author_id, body, media_refs, created_at`,
		id, authorId,
	).Scan(&post.Id, &post.AuthorId, &post.Body, &post.MediaRefs, &post.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Post{}, storage.ErrNotFound
		}
		return entity.Post{}, err
	}

	if err := appendEvent(ctx, tx, event.MakeContentDeleted(post)); err != nil {
		return entity.Post{}, err
	}

	return post, tx.Commit(ctx)
}
