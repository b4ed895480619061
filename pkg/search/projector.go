package search

import (
	"context"

	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/logging"
	"go.opentelemetry.io/otel/trace"
)

// Projector applies content lifecycle events to the index. Both handlers
// are idempotent, as required by at-least-once delivery: state per
// content identifier moves absent → indexed → absent, and replaying any
// step leaves the index unchanged.
type Projector struct {
	index  Index
	logger logging.Logger
	tracer trace.Tracer
}

func NewProjector(index Index, logger logging.Logger, tracer trace.Tracer) Projector {
	return Projector{
		index:  index,
		logger: logger,
		tracer: tracer,
	}
}

// Register installs the projector's handlers on the dispatcher.
func (p Projector) Register(d *event.Dispatcher) {
	d.Register(string(event.ContentCreated), p.handleContentCreated)
	d.Register(string(event.ContentDeleted), p.handleContentDeleted)
}

func (p Projector) handleContentCreated(ctx context.Context, e event.Event) error {
	ctx, span := p.tracer.Start(ctx, "search.handleContentCreated")
	defer span.End()

	body, err := event.DecodeContentCreated(e)
	if err != nil {
		return err
	}

	err = p.index.Upsert(ctx, Entry{
		ContentId: body.ContentId,
		AuthorId:  body.AuthorId,
		Body:      body.Body,
		CreatedAt: body.CreatedAt,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	p.logger.Log("Indexed content", "contentId", body.ContentId)
	return nil
}

func (p Projector) handleContentDeleted(ctx context.Context, e event.Event) error {
	ctx, span := p.tracer.Start(ctx, "search.handleContentDeleted")
	defer span.End()

	body, err := event.DecodeContentDeleted(e)
	if err != nil {
		return err
	}

	if err := p.index.Delete(ctx, body.ContentId); err != nil {
		span.RecordError(err)
		return err
	}

	p.logger.Log("Removed content from index", "contentId", body.ContentId)
	return nil
}
