// Package search keeps a full-text-searchable projection of content in
// sync with content lifecycle events.
package search

import (
	"context"
	"io"
	"time"
)

// Entry is the derived index record, keyed by the originating content
// identifier. Score is only populated on query results.
type Entry struct {
	ContentId string    `json:"contentId"`
	AuthorId  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	Score     float64   `json:"score,omitempty"`
}

type Index interface {
	// Upsert inserts or overwrites the entry for its content identifier.
	// Overwriting with identical data is a no-op in effect, which makes
	// duplicate deliveries safe.
	Upsert(ctx context.Context, entry Entry) error

	// Delete removes the entry if present. Absence is not an error.
	Delete(ctx context.Context, contentId string) error

	// Search returns up to limit entries matching the text query,
	// ordered by descending relevance score.
	Search(ctx context.Context, query string, limit int) ([]Entry, error)

	io.Closer
}
