package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bloodlink/internal/audit"
	dirmodels "bloodlink/internal/directory/models"
	donormodels "bloodlink/internal/donor/models"
	"bloodlink/internal/nearby/metrics"
	"bloodlink/internal/nearby/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	auditevents "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type DonorSource interface {
	List(ctx context.Context) ([]*donormodels.Profile, error)
}

type Directory interface {
	FindReceiverByUser(ctx context.Context, userID id.UserID) (*dirmodels.Receiver, error)
	ListHospitals(ctx context.Context) ([]*dirmodels.Hospital, error)
	ListBloodBanks(ctx context.Context) ([]*dirmodels.BloodBank, error)
}

type RecordStore interface {
	Create(ctx context.Context, rec *models.DistanceRecord) error
	ListByReceiver(ctx context.Context, receiverID id.UserID, limit int) ([]*models.DistanceRecord, error)
}

// CandidateCache holds recently loaded candidate sets. Failures are treated
// as misses.
type CandidateCache interface {
	Get(ctx context.Context, t models.EntityType) ([]models.Candidate, bool, error)
	Set(ctx context.Context, t models.EntityType, candidates []models.Candidate) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service resolves the registered entities nearest to a receiver.
type Service struct {
	donors    DonorSource
	directory Directory
	records   RecordStore
	cache     CandidateCache
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

func WithCandidateCache(cache CandidateCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func New(donors DonorSource, directory Directory, records RecordStore, opts ...Option) *Service {
	s := &Service{
		donors:    donors,
		directory: directory,
		records:   records,
		activity:  audit.NewRecorder(nil),
		logger:    slog.Default(),
		tracer:    otel.Tracer("bloodlink/internal/nearby"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveNearby ranks every donor, hospital and blood bank with a known
// location by distance to the acting receiver and snapshots the nearest of
// each type. A receiver without a usable location gets an empty result and
// no snapshot.
func (s *Service) ResolveNearby(ctx context.Context, actor *dirmodels.Actor) (*models.Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "nearby.Resolve")
	defer span.End()

	result, err := s.resolve(ctx, actor)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.metrics.ObserveResolve(string(dErrors.CodeOf(err)), start)
		return nil, err
	}
	span.SetAttributes(attribute.Int("nearby.count", len(result.Nearby)))
	outcome := "ok"
	if len(result.Nearby) == 0 {
		outcome = "empty"
	}
	s.metrics.ObserveResolve(outcome, start)
	return result, nil
}

func (s *Service) resolve(ctx context.Context, actor *dirmodels.Actor) (*models.Result, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	if actor.Role != id.RoleReceiver {
		return nil, dErrors.New(dErrors.CodeForbidden, "only receivers can look up nearby entities")
	}
	receiver, err := s.directory.FindReceiverByUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "receiver profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load receiver")
	}

	result := &models.Result{
		Receiver: receiver.Name,
		Location: receiver.Location,
		Nearby:   []models.Ranked{},
	}
	origin := receiver.Location
	if err := origin.Validate(); err != nil {
		s.logger.WarnContext(ctx, "receiver location is malformed; treating as unknown",
			"request_id", requestcontext.RequestID(ctx),
			"receiver_id", receiver.ID.String(),
			"error", err,
		)
		return result, nil
	}
	if !origin.Known() {
		return result, nil
	}

	// one slot per type so the fan-out never shares a slice
	var (
		ranked  [3][]models.Ranked
		skipped [3]int
	)
	types := [3]models.EntityType{models.EntityDonor, models.EntityHospital, models.EntityBloodBank}
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range types {
		g.Go(func() error {
			candidates, err := s.candidates(gctx, t)
			if err != nil {
				return err
			}
			ranked[i], skipped[i] = models.Measure(origin, candidates)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidates")
	}

	combined, nearest := models.Combine(ranked[0], ranked[1], ranked[2])
	result.Nearby = combined
	result.NearestByType = nearest
	result.Skipped = skipped[0] + skipped[1] + skipped[2]
	s.metrics.AddSkipped(result.Skipped)
	if len(combined) == 0 {
		return result, nil
	}

	// the snapshot is written once, after every ranking has finished
	rec := models.NewDistanceRecord(actor.UserID, nearest, requestcontext.Now(ctx))
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write distance record")
	}

	s.activity.Record(ctx, audit.Entry{
		ActorID:     actor.UserID,
		Action:      auditevents.ActionNearbyResolved,
		Description: "Nearby entities resolved for " + receiver.Name,
		Metadata:    snapshotMetadata(rec, len(combined)),
	})
	s.logger.InfoContext(ctx, "nearby entities resolved",
		"event", string(auditevents.ActionNearbyResolved),
		"request_id", requestcontext.RequestID(ctx),
		"receiver_id", receiver.ID.String(),
		"count", len(combined),
		"skipped", result.Skipped,
	)
	return result, nil
}

func snapshotMetadata(rec *models.DistanceRecord, count int) map[string]any {
	metadata := map[string]any{
		"distance_record_id": rec.ID.String(),
		"result_count":       count,
	}
	if rec.ReceiverToDonorKm != nil {
		metadata["receiver_to_donor_km"] = *rec.ReceiverToDonorKm
	}
	if rec.ReceiverToHospitalKm != nil {
		metadata["receiver_to_hospital_km"] = *rec.ReceiverToHospitalKm
	}
	if rec.ReceiverToBloodBankKm != nil {
		metadata["receiver_to_bloodbank_km"] = *rec.ReceiverToBloodBankKm
	}
	return metadata
}

// candidates loads one type's candidate set, through the cache when set.
func (s *Service) candidates(ctx context.Context, t models.EntityType) ([]models.Candidate, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, t)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "candidate cache read failed", "type", string(t), "error", err)
			s.metrics.IncrementCache(string(t), "error")
		case ok:
			s.metrics.IncrementCache(string(t), "hit")
			return cached, nil
		default:
			s.metrics.IncrementCache(string(t), "miss")
		}
	}

	candidates, err := s.load(ctx, t)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, t, candidates); err != nil {
			s.logger.WarnContext(ctx, "candidate cache write failed", "type", string(t), "error", err)
		}
	}
	return candidates, nil
}

func (s *Service) load(ctx context.Context, t models.EntityType) ([]models.Candidate, error) {
	switch t {
	case models.EntityDonor:
		donors, err := s.donors.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Candidate, 0, len(donors))
		for _, d := range donors {
			userID := d.UserID
			out = append(out, models.Candidate{
				Type:       t,
				ID:         uuid.UUID(d.ID),
				UserID:     &userID,
				Name:       d.Name,
				BloodGroup: d.BloodGroup,
				Location:   d.Location,
			})
		}
		return out, nil
	case models.EntityHospital:
		hospitals, err := s.directory.ListHospitals(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Candidate, 0, len(hospitals))
		for _, h := range hospitals {
			userID := h.UserID
			out = append(out, models.Candidate{
				Type:     t,
				ID:       uuid.UUID(h.ID),
				UserID:   &userID,
				Name:     h.Name,
				Location: h.Location,
			})
		}
		return out, nil
	default:
		banks, err := s.directory.ListBloodBanks(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.Candidate, 0, len(banks))
		for _, b := range banks {
			out = append(out, models.Candidate{
				Type:     t,
				ID:       uuid.UUID(b.ID),
				Name:     b.Name,
				Location: b.Location,
			})
		}
		return out, nil
	}
}

// History returns the acting receiver's most recent snapshots.
func (s *Service) History(ctx context.Context, actor *dirmodels.Actor, limit int) ([]*models.DistanceRecord, error) {
	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	if actor.Role != id.RoleReceiver {
		return nil, dErrors.New(dErrors.CodeForbidden, "only receivers have nearby history")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)
	recs, err := s.records.ListByReceiver(ctx, actor.UserID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list distance records")
	}
	return recs, nil
}
