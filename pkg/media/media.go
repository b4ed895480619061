// Package media manages uploaded assets and reclaims them when their
// owning content is deleted.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/driftline/driftline/pkg/entity"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/gofrs/uuid"
)

// ObjectStore is the blob backend holding the asset bytes.
type ObjectStore interface {
	// Upload stores the object and returns its public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)

	// Remove deletes the object. Removing an absent object is success.
	Remove(ctx context.Context, key string) error
}

// MetadataStore holds the asset records referenced by posts.
type MetadataStore interface {
	Create(ctx context.Context, media entity.Media) error
	GetByAuthor(ctx context.Context, authorId string) ([]entity.Media, error)

	// DeleteByObjectKey removes the record if present; absence is not
	// an error.
	DeleteByObjectKey(ctx context.Context, objectKey string) error
}

// Service handles uploads on the media service's HTTP surface.
type Service struct {
	objects  ObjectStore
	metadata MetadataStore
	logger   logging.Logger
}

func NewService(objects ObjectStore, metadata MetadataStore, logger logging.Logger) Service {
	return Service{
		objects:  objects,
		metadata: metadata,
		logger:   logger,
	}
}

func (s Service) Upload(ctx context.Context, authorId, originalName, mimeType string, body io.Reader) (entity.Media, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return entity.Media{}, err
	}

	objectKey := fmt.Sprintf("%s/%s%s", authorId, id, path.Ext(originalName))

	url, err := s.objects.Upload(ctx, objectKey, mimeType, body)
	if err != nil {
		return entity.Media{}, fmt.Errorf("uploading object %q: %w", objectKey, err)
	}

	media := entity.Media{
		Id:           id.String(),
		AuthorId:     authorId,
		ObjectKey:    objectKey,
		OriginalName: originalName,
		MimeType:     mimeType,
		URL:          url,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.metadata.Create(ctx, media); err != nil {
		// Keep storage and metadata consistent on the write path.
		if rmErr := s.objects.Remove(ctx, objectKey); rmErr != nil {
			s.logger.Log("Failed to remove orphaned object", "objectKey", objectKey, "err", rmErr)
		}
		return entity.Media{}, err
	}

	return media, nil
}

func (s Service) GetByAuthor(ctx context.Context, authorId string) ([]entity.Media, error) {
	return s.metadata.GetByAuthor(ctx, authorId)
}
