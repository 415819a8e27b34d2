package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"bloodlink/internal/donor/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

// InMemoryStore keeps donor profiles in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.DonorID]*models.Profile
	byUser   map[id.UserID]id.DonorID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[id.DonorID]*models.Profile),
		byUser:   make(map[id.UserID]id.DonorID),
	}
}

func (s *InMemoryStore) Save(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.profiles[p.ID]
	cp := *p
	s.profiles[p.ID] = &cp
	s.byUser[p.UserID] = p.ID
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.byUser, cp.UserID)
		if !existed {
			delete(s.profiles, cp.ID)
			return
		}
		s.profiles[prev.ID] = prev
		s.byUser[prev.UserID] = prev.ID
	})
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, donorID id.DonorID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[donorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) FindByUserID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	donorID, ok := s.byUser[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, donorID)
}

// List returns every profile ordered by creation key so callers see a stable
// candidate order.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// RecordDonation increments both counters and stamps the donation day under
// the store lock so concurrent credits are never lost.
func (s *InMemoryStore) RecordDonation(ctx context.Context, donorID id.DonorID, day time.Time) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[donorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	prevDate := current.LastDonationDate
	d := models.DateOf(day)
	p := *current
	p.LastDonationDate = &d
	p.TotalDonations++
	p.DonationPoints++
	s.profiles[donorID] = &p

	// Undo reverses this credit only, so credits committed by other units
	// of work in the meantime are kept.
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cur, ok := s.profiles[donorID]
		if !ok {
			return
		}
		restored := *cur
		restored.TotalDonations--
		restored.DonationPoints--
		if restored.LastDonationDate == &d {
			restored.LastDonationDate = prevDate
		}
		s.profiles[donorID] = &restored
	})
	cp := p
	return &cp, nil
}
