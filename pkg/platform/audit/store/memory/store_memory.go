package memory

import (
	"context"
	"sort"
	"sync"

	id "bloodlink/pkg/domain"
	audit "bloodlink/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.UserID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.UserID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.UserID][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ActorID] = append(s.events[event.ActorID], event)
	return nil
}

// ListByActor returns the actor's events, most recent first.
func (s *InMemoryStore) ListByActor(_ context.Context, actorID id.UserID, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	out := append([]audit.Event{}, s.events[actorID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAll returns every recorded event. Used by tests.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, actorEvents := range s.events {
		all = append(all, actorEvents...)
	}
	return all, nil
}
