package store

import (
	"context"
	"sort"
	"sync"

	"bloodlink/internal/nearby/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemoryStore keeps distance records in process memory. Records are never
// updated once written.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []*models.DistanceRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, rec *models.DistanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.ID == rec.ID {
			return sentinel.ErrConflict
		}
	}
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

// ListByReceiver returns the receiver's records, newest first. A
// non-positive limit returns all of them.
func (s *InMemoryStore) ListByReceiver(_ context.Context, receiverID id.UserID, limit int) ([]*models.DistanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.DistanceRecord{}
	for _, rec := range s.records {
		if rec.ReceiverID == receiverID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns how many records have been written.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
