package audit

import (
	"context"
	"log/slog"
)

// Sink forwards events to an external system (Kafka). Optional.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from the service inbox, persists them, and
// forwards them to the sink when one is configured. Persistence and sink
// failures are logged, never propagated back to request handlers.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit sink publish failed",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
