package audit

import (
	"context"

	"regoffice/pkg/requestcontext"
)

// Buffered is a Sink that hands events to a background worker through a
// bounded channel. Emit never blocks the caller; when the inbox is full the
// event is dropped, because audit must not back-pressure the action it
// describes.
type Buffered struct {
	inbox chan Event
}

func NewBuffered(size int) *Buffered {
	return &Buffered{inbox: make(chan Event, size)}
}

// Inbox exposes the channel for the draining worker.
func (b *Buffered) Inbox() <-chan Event {
	return b.inbox
}

func (b *Buffered) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx).UTC()
	}
	select {
	case b.inbox <- event:
	default:
	}
	return nil
}
