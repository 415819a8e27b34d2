package store

import (
	"context"
	"sync"

	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

type key struct {
	bank  id.BloodBankID
	group id.BloodGroup
}

// InMemoryStore keeps inventory rows in process memory, one per bank and group.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[key]*models.Inventory
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[key]*models.Inventory)}
}

func (s *InMemoryStore) Find(_ context.Context, bankID id.BloodBankID, group id.BloodGroup) (*models.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.rows[key{bankID, group}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

// ListByBank returns the bank's rows in blood group display order.
func (s *InMemoryStore) ListByBank(_ context.Context, bankID id.BloodBankID) ([]*models.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Inventory{}
	for _, group := range id.BloodGroups() {
		if inv, ok := s.rows[key{bankID, group}]; ok {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Upsert(ctx context.Context, inv *models.Inventory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{inv.BloodBankID, inv.BloodGroup}
	cp := *inv
	existing, existed := s.rows[k]
	if existed {
		cp.ID = existing.ID
		inv.ID = existing.ID
	}
	s.rows[k] = &cp
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.rows[k] = existing
			return
		}
		delete(s.rows, k)
	})
	return nil
}
