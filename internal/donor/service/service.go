package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bloodlink/internal/donor/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Store is the donor profile persistence port.
type Store interface {
	FindByID(ctx context.Context, donorID id.DonorID) (*models.Profile, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	RecordDonation(ctx context.Context, donorID id.DonorID, day time.Time) (*models.Profile, error)
}

// Service answers donor eligibility questions.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Eligibility derives the donor's readiness as of the request time.
func (s *Service) Eligibility(ctx context.Context, donorID id.DonorID) (models.Eligibility, error) {
	p, err := s.store.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Eligibility{}, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return models.Eligibility{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	return models.Evaluate(p, requestcontext.Now(ctx)), nil
}

// Profile returns the donor profile for an id.
func (s *Service) Profile(ctx context.Context, donorID id.DonorID) (*models.Profile, error) {
	p, err := s.store.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	return p, nil
}
