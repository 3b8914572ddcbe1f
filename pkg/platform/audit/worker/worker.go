// Package worker drains buffered audit events into a store off the request
// path.
package worker

import (
	"context"
	"log/slog"

	"regoffice/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Emitters
// never block on storage; a full inbox is the emitter's signal to drop.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until the context is cancelled. Store failures are
// logged and skipped; losing one audit row must not stop the drain.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
