package audit

import (
	"context"
	"log/slog"
	"time"

	"ballotgate/internal/platform/middleware"
)

// Service accepts events from domain logic and hands them to the worker over
// a bounded channel. Emit never blocks a request: when the inbox is full the
// event is dropped with a warning. The trail is operational, not evidentiary,
// so fail-open is the right trade-off here.
type Service struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewService(buffer int, logger *slog.Logger) *Service {
	if buffer <= 0 {
		buffer = 256
	}
	return &Service{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the channel for the worker.
func (s *Service) Inbox() <-chan Event { return s.inbox }

// Emit records an event asynchronously. The device summary is picked up from
// the request context when the emitter did not set one.
func (s *Service) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Device == "" {
		event.Device = middleware.GetDevice(ctx)
	}
	select {
	case s.inbox <- event:
	default:
		s.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
		)
	}
}
