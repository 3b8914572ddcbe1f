// Package audit captures who searched and matched what. Regulatory reviews
// of conviction-match decisions need a trail independent of request logs.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose, enabling
// different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance:
	// conviction-match decisions and reference-data imports.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine back-office activity: report
	// searches and lookups. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Actor is the authenticated back-office user performing the action.
	Actor string
	// Action names what happened, e.g. "search.registration" or
	// "convictions.match".
	Action string
	// Subject is what the action was about: a search summary or the
	// identity being matched.
	Subject string
	// Outcome summarizes the result: a match tier, a result count, or
	// "no_match".
	Outcome   string
	RequestID string
	Detail    map[string]string
}

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

// Sink receives events for delivery to an external system.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}
