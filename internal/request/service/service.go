package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"bloodlink/internal/audit"
	dirmodels "bloodlink/internal/directory/models"
	donormodels "bloodlink/internal/donor/models"
	invmodels "bloodlink/internal/inventory/models"
	"bloodlink/internal/request/metrics"
	"bloodlink/internal/request/models"
	id "bloodlink/pkg/domain"
)

type RequestStore interface {
	Create(ctx context.Context, req *models.BloodRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.BloodRequest, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.BloodRequest, error)
	Update(ctx context.Context, req *models.BloodRequest, expectedVersion int) error
}

type DonationStore interface {
	FindByRequest(ctx context.Context, requestID id.RequestID) (*models.DonationRecord, error)
	Create(ctx context.Context, rec *models.DonationRecord) error
	Update(ctx context.Context, rec *models.DonationRecord) error
}

// DonorStore is the slice of the donor store the engine needs. RecordDonation
// must be a single atomic increment.
type DonorStore interface {
	FindByID(ctx context.Context, donorID id.DonorID) (*donormodels.Profile, error)
	FindByUserID(ctx context.Context, userID id.UserID) (*donormodels.Profile, error)
	RecordDonation(ctx context.Context, donorID id.DonorID, day time.Time) (*donormodels.Profile, error)
}

type Directory interface {
	FindHospital(ctx context.Context, hospitalID id.HospitalID) (*dirmodels.Hospital, error)
	FindBloodBank(ctx context.Context, bankID id.BloodBankID) (*dirmodels.BloodBank, error)
	FindHospitalByUser(ctx context.Context, userID id.UserID) (*dirmodels.Hospital, error)
	FindReceiverByUser(ctx context.Context, userID id.UserID) (*dirmodels.Receiver, error)
}

type InventoryClassifier interface {
	ClassifyInventory(ctx context.Context, bankID id.BloodBankID, group id.BloodGroup) (invmodels.Row, error)
}

// UnitOfWork runs fn atomically. Stores called with the ctx passed to fn
// join the unit of work.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service is the request lifecycle engine.
type Service struct {
	requests  RequestStore
	donations DonationStore
	donors    DonorStore
	directory Directory
	inventory InventoryClassifier
	tx        UnitOfWork
	activity  ActivityRecorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithActivityRecorder(recorder ActivityRecorder) Option {
	return func(s *Service) {
		s.activity = recorder
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(
	requests RequestStore,
	donations DonationStore,
	donors DonorStore,
	directory Directory,
	inventory InventoryClassifier,
	tx UnitOfWork,
	opts ...Option,
) *Service {
	s := &Service{
		requests:  requests,
		donations: donations,
		donors:    donors,
		directory: directory,
		inventory: inventory,
		tx:        tx,
		activity:  audit.NewRecorder(nil),
		logger:    slog.Default(),
		tracer:    otel.Tracer("bloodlink/internal/request"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
