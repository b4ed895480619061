package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/driftline/driftline/pkg/entity"
	"github.com/driftline/driftline/pkg/event"
)

var ErrNotFound = errors.New("post not found")

type Getter interface {
	Get(ctx context.Context, id string) (entity.Post, error)

	// GetMultiple returns a page of posts sorted by creation time
	// descending. Pages are 1-based.
	GetMultiple(ctx context.Context, page, pageSize int) ([]entity.Post, error)

	Count(ctx context.Context) (int, error)
}

type Writer interface {
	Create(ctx context.Context, post entity.Post) error

	// Delete removes the post if it exists and belongs to authorId, and
	// returns its last state so the caller can build the deletion event
	// payload (media references included). Returns ErrNotFound both for
	// a missing post and for a non-owner, so callers cannot probe for
	// other users' post identifiers.
	Delete(ctx context.Context, id, authorId string) (entity.Post, error)
}

// EventLog exposes the events appended transactionally with every
// mutation. The reconciliation sweep replays them to close the gap left
// by publish failures after a committed write.
type EventLog interface {
	Since(ctx context.Context, since time.Time) ([]event.Event, error)
	Prune(ctx context.Context, before time.Time) error
}

type Storage interface {
	Getter
	Writer
	EventLog
	io.Closer
}
