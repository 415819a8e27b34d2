package store

import (
	"context"
	"sync"

	"bloodlink/internal/directory/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemoryStore holds hospitals, blood banks and receivers. List results
// keep insertion order.
type InMemoryStore struct {
	mu sync.RWMutex

	hospitals     map[id.HospitalID]*models.Hospital
	hospitalOrder []id.HospitalID
	banks         map[id.BloodBankID]*models.BloodBank
	bankOrder     []id.BloodBankID
	receivers     map[id.ReceiverID]*models.Receiver
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		hospitals: make(map[id.HospitalID]*models.Hospital),
		banks:     make(map[id.BloodBankID]*models.BloodBank),
		receivers: make(map[id.ReceiverID]*models.Receiver),
	}
}

func (s *InMemoryStore) SaveHospital(_ context.Context, h *models.Hospital) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hospitals[h.ID]; !ok {
		s.hospitalOrder = append(s.hospitalOrder, h.ID)
	}
	cp := *h
	s.hospitals[h.ID] = &cp
	return nil
}

func (s *InMemoryStore) SaveBloodBank(_ context.Context, b *models.BloodBank) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.banks[b.ID]; !ok {
		s.bankOrder = append(s.bankOrder, b.ID)
	}
	cp := *b
	s.banks[b.ID] = &cp
	return nil
}

func (s *InMemoryStore) SaveReceiver(_ context.Context, r *models.Receiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.receivers[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindHospital(_ context.Context, hospitalID id.HospitalID) (*models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hospitals[hospitalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (s *InMemoryStore) FindBloodBank(_ context.Context, bankID id.BloodBankID) (*models.BloodBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.banks[bankID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) FindHospitalByUser(_ context.Context, userID id.UserID) (*models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, hid := range s.hospitalOrder {
		if h := s.hospitals[hid]; h.UserID == userID {
			cp := *h
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindBloodBankByUser(_ context.Context, userID id.UserID) (*models.BloodBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, bid := range s.bankOrder {
		if b := s.banks[bid]; b.UserID == userID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindReceiverByUser(_ context.Context, userID id.UserID) (*models.Receiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.receivers {
		if r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListHospitals(_ context.Context) ([]*models.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Hospital, 0, len(s.hospitalOrder))
	for _, hid := range s.hospitalOrder {
		cp := *s.hospitals[hid]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) ListBloodBanks(_ context.Context) ([]*models.BloodBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.BloodBank, 0, len(s.bankOrder))
	for _, bid := range s.bankOrder {
		cp := *s.banks[bid]
		out = append(out, &cp)
	}
	return out, nil
}
