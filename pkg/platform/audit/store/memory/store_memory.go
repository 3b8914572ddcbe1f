// Package memory provides an in-memory audit store for tests and dev mode.
package memory

import (
	"context"
	"sync"

	"regoffice/pkg/platform/audit"
)

// Store keeps events in insertion order.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns the most recent events, newest last. Limit 0 returns all.
func (s *Store) List(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]audit.Event, len(events))
	copy(out, events)
	return out, nil
}
