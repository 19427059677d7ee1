package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Workers fans object events out over a bounded pool. Assets are
// independent, so events run concurrently with no shared state between them.
type Workers struct {
	service *Service
	limit   int
}

// NewWorkers creates a pool around the service. A non-positive limit means
// sequential processing.
func NewWorkers(service *Service, limit int) *Workers {
	if limit < 1 {
		limit = 1
	}
	return &Workers{service: service, limit: limit}
}

// Run processes every event and returns the first error encountered. A
// failed event does not stop in-flight siblings, but cancels the group so
// unstarted events are abandoned for the caller to retry.
func (w *Workers) Run(ctx context.Context, objectEvents []ObjectEvent) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.limit)

	for _, event := range objectEvents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return w.service.Process(ctx, event)
		})
	}
	return g.Wait()
}
