package service

import (
	"context"
	"time"

	"github.com/driftline/driftline/pkg/event"
	"github.com/driftline/driftline/pkg/logging"
	"github.com/driftline/driftline/pkg/storage"
)

// Reconciler periodically republishes recent entries from the event log.
// A publish that failed after its primary-store write committed leaves
// derived stores stale; replaying the logged events closes that gap.
// Consumers are idempotent, so replaying already-delivered events is
// harmless.
type Reconciler struct {
	log       storage.EventLog
	publisher event.Publisher
	logger    logging.Logger

	Interval  time.Duration
	Lookback  time.Duration
	Retention time.Duration
}

func NewReconciler(log storage.EventLog, publisher event.Publisher, logger logging.Logger, interval, lookback, retention time.Duration) Reconciler {
	return Reconciler{
		log:       log,
		publisher: publisher,
		logger:    logger,
		Interval:  interval,
		Lookback:  lookback,
		Retention: retention,
	}
}

// Run blocks until ctx is done, sweeping on every interval tick.
func (r Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Log("Reconciliation sweep failed", "err", err)
			}
		}
	}
}

// Sweep republishes events newer than the lookback window and prunes
// entries older than the retention horizon.
func (r Reconciler) Sweep(ctx context.Context) error {
	now := time.Now()

	events, err := r.log.Since(ctx, now.Add(-r.Lookback))
	if err != nil {
		return err
	}

	for _, e := range events {
		if err := r.publisher.ResilientPublish(ctx, e); err != nil {
			// Queue full; the next sweep picks the event up again.
			r.logger.Log("Failed to enqueue event during sweep", "routingKey", e.Type, "err", err)
			break
		}
	}

	return r.log.Prune(ctx, now.Add(-r.Retention))
}
