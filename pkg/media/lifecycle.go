package media

import (
	"context"

	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/logging"
	"go.opentelemetry.io/otel/trace"
)

// Lifecycle reclaims media assets when their owning content is deleted.
// Removal is idempotent, so redelivered events skip already-deleted
// assets instead of erroring. Per-asset failures are logged and left for
// the next redelivery or an operator; the event itself is acked.
type Lifecycle struct {
	objects  ObjectStore
	metadata MetadataStore
	logger   logging.Logger
	tracer   trace.Tracer
}

func NewLifecycle(objects ObjectStore, metadata MetadataStore, logger logging.Logger, tracer trace.Tracer) Lifecycle {
	return Lifecycle{
		objects:  objects,
		metadata: metadata,
		logger:   logger,
		tracer:   tracer,
	}
}

// Register installs the lifecycle handler on the dispatcher.
func (l Lifecycle) Register(d *event.Dispatcher) {
	d.Register(string(event.ContentDeleted), l.handleContentDeleted)
}

func (l Lifecycle) handleContentDeleted(ctx context.Context, e event.Event) error {
	ctx, span := l.tracer.Start(ctx, "media.handleContentDeleted")
	defer span.End()

	body, err := event.DecodeContentDeleted(e)
	if err != nil {
		return err
	}

	for _, ref := range body.MediaRefs {
		if err := l.objects.Remove(ctx, ref); err != nil {
			span.RecordError(err)
			l.logger.Log("Failed to remove media object",
				"contentId", body.ContentId, "objectKey", ref, "err", err)
			continue
		}

		if err := l.metadata.DeleteByObjectKey(ctx, ref); err != nil {
			span.RecordError(err)
			l.logger.Log("Failed to remove media metadata",
				"contentId", body.ContentId, "objectKey", ref, "err", err)
			continue
		}

		l.logger.Log("Reclaimed media asset", "contentId", body.ContentId, "objectKey", ref)
	}

	return nil
}
