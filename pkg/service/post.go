// Package service orchestrates the authoring write path: primary-store
// write, synchronous cache invalidation, then event publishing. No
// distributed transaction spans the three steps; the event log appended
// with each write plus the reconciliation sweep cover the gaps.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/driftline/driftline/pkg/cache"
	"github.com/driftline/driftline/pkg/entity"
	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/storage"
	"github.com/gofrs/uuid"
)

// Cache is the slice of pkg/cache the post service needs. The cache is
// a latency optimization only: implementations must never let a cache
// failure fail a read.
type Cache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader cache.Loader) ([]byte, error)
	Invalidate(ctx context.Context, id string) error
}

type Storage interface {
	storage.Getter
	storage.Writer
}

type Posts struct {
	storage   Storage
	cache     Cache
	publisher event.Publisher
	logger    logging.Logger
}

func NewPosts(storage Storage, cache Cache, publisher event.Publisher, logger logging.Logger) Posts {
	return Posts{
		storage:   storage,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
	}
}

// ListResult is the API response body for a listing page. It is what
// gets cached under the collection key.
type ListResult struct {
	Posts       []entity.Post `json:"posts"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalPosts  int           `json:"totalPosts"`
}

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Create validates and persists a new post, invalidates cached listings
// and announces the write. Broker unavailability never fails the
// request: the write already committed and the reconciliation sweep
// replays the logged event.
func (s Posts) Create(ctx context.Context, authorId, body string, mediaRefs []string) (entity.Post, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return entity.Post{}, err
	}

	post := entity.Post{
		Id:        id.String(),
		AuthorId:  authorId,
		Body:      body,
		MediaRefs: mediaRefs,
		CreatedAt: time.Now().UTC(),
	}

	if err := post.Validate(); err != nil {
		return entity.Post{}, err
	}

	if err := s.storage.Create(ctx, post); err != nil {
		return entity.Post{}, err
	}

	s.invalidate(ctx, post.Id)
	s.announce(ctx, event.MakeContentCreated(post))

	return post, nil
}

// Get serves a single post through the cache.
func (s Posts) Get(ctx context.Context, id string) (entity.Post, error) {
	data, err := s.cache.GetOrLoad(ctx, cache.ItemKey(id), cache.ItemTTL, func(ctx context.Context) ([]byte, error) {
		post, err := s.storage.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(post)
	})
	if err != nil {
		return entity.Post{}, err
	}

	var post entity.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return entity.Post{}, err
	}
	return post, nil
}

// List serves a listing page through the cache, sorted by creation time
// descending.
func (s Posts) List(ctx context.Context, page, pageSize int) (ListResult, error) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	data, err := s.cache.GetOrLoad(ctx, cache.ListKey(page, pageSize), cache.ListTTL, func(ctx context.Context) ([]byte, error) {
		posts, err := s.storage.GetMultiple(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}

		total, err := s.storage.Count(ctx)
		if err != nil {
			return nil, err
		}

		return json.Marshal(ListResult{
			Posts:       posts,
			CurrentPage: page,
			TotalPages:  (total + pageSize - 1) / pageSize,
			TotalPosts:  total,
		})
	})
	if err != nil {
		return ListResult{}, err
	}

	var result ListResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ListResult{}, err
	}
	return result, nil
}

// Delete removes the author's post, invalidates its cache entries and
// announces the deletion so derived stores and media assets catch up.
func (s Posts) Delete(ctx context.Context, id, authorId string) error {
	post, err := s.storage.Delete(ctx, id, authorId)
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.announce(ctx, event.MakeContentDeleted(post))

	return nil
}

// invalidate must complete before the HTTP response is returned so a
// client re-reading after its own write never sees pre-write state.
// Cache errors are logged, not surfaced: reads fall through to the
// primary store anyway.
func (s Posts) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Log("Failed to invalidate cache", "postId", id, "err", err)
	}
}

func (s Posts) announce(ctx context.Context, e event.Event) {
	if err := s.publisher.ResilientPublish(ctx, e); err != nil {
		s.logger.Log("Failed to enqueue event, reconciliation sweep will replay it",
			"routingKey", e.Type, "err", err)
	}
}
