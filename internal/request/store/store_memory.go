package store

import (
	"context"
	"sort"
	"sync"

	"bloodlink/internal/request/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

// InMemoryRequestStore keeps blood requests in process memory.
type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.BloodRequest
	seq      int64
}

func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{requests: make(map[id.RequestID]*models.BloodRequest)}
}

func (s *InMemoryRequestStore) Create(ctx context.Context, req *models.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return sentinel.ErrConflict
	}
	s.seq++
	req.Number = s.seq
	cp := *req
	s.requests[req.ID] = &cp
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		delete(s.requests, cp.ID)
		s.mu.Unlock()
	})
	return nil
}

func (s *InMemoryRequestStore) FindByID(_ context.Context, requestID id.RequestID) (*models.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

// List returns matching requests, newest first.
func (s *InMemoryRequestStore) List(_ context.Context, filter models.ListFilter) ([]*models.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.BloodRequest{}
	for _, req := range s.requests {
		if filter.Matches(req) {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Number > out[j].Number
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update replaces the request when its stored version still equals
// expectedVersion, and bumps the version.
func (s *InMemoryRequestStore) Update(ctx context.Context, req *models.BloodRequest, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.requests[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	req.Version = expectedVersion + 1
	req.Number = existing.Number
	cp := *req
	s.requests[req.ID] = &cp
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		s.requests[existing.ID] = existing
		s.mu.Unlock()
	})
	return nil
}

// InMemoryDonationStore keeps donation records in process memory, indexed by
// their related request.
type InMemoryDonationStore struct {
	mu        sync.RWMutex
	records   map[id.DonationID]*models.DonationRecord
	byRequest map[id.RequestID]id.DonationID
	seq       int64
}

func NewInMemoryDonationStore() *InMemoryDonationStore {
	return &InMemoryDonationStore{
		records:   make(map[id.DonationID]*models.DonationRecord),
		byRequest: make(map[id.RequestID]id.DonationID),
	}
}

func (s *InMemoryDonationStore) FindByRequest(_ context.Context, requestID id.RequestID) (*models.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donationID, ok := s.byRequest[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.records[donationID]
	return &cp, nil
}

// Create stores a new record. A request may link to at most one record.
func (s *InMemoryDonationStore) Create(ctx context.Context, rec *models.DonationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.RelatedRequest != nil {
		if _, ok := s.byRequest[*rec.RelatedRequest]; ok {
			return sentinel.ErrConflict
		}
	}
	s.seq++
	rec.Number = s.seq
	cp := *rec
	s.records[rec.ID] = &cp
	if rec.RelatedRequest != nil {
		s.byRequest[*rec.RelatedRequest] = rec.ID
	}
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.records, cp.ID)
		if cp.RelatedRequest != nil && s.byRequest[*cp.RelatedRequest] == cp.ID {
			delete(s.byRequest, *cp.RelatedRequest)
		}
	})
	return nil
}

func (s *InMemoryDonationStore) Update(ctx context.Context, rec *models.DonationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[rec.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Number = existing.Number
	cp := *rec
	s.records[rec.ID] = &cp
	txcontext.OnRollback(ctx, func() {
		s.mu.Lock()
		s.records[existing.ID] = existing
		s.mu.Unlock()
	})
	return nil
}

// ListByRequest returns every record linked to the request.
func (s *InMemoryDonationStore) ListByRequest(_ context.Context, requestID id.RequestID) ([]*models.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.DonationRecord{}
	for _, rec := range s.records {
		if rec.RelatedRequest != nil && *rec.RelatedRequest == requestID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
