package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bloodlink/internal/audit"
	dirmodels "bloodlink/internal/directory/models"
	"bloodlink/internal/geo"
	"bloodlink/internal/request/models"
	"bloodlink/internal/request/policy"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	auditevents "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Create opens a PENDING request on behalf of a receiver or hospital.
func (s *Service) Create(ctx context.Context, actor *dirmodels.Actor, in models.CreateInput) (*models.BloodRequest, error) {
	ctx, span := s.tracer.Start(ctx, "request.Create")
	defer span.End()

	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	var requesterType models.RequesterType
	switch actor.Role {
	case id.RoleReceiver:
		requesterType = models.RequesterReceiver
	case id.RoleHospital:
		requesterType = models.RequesterHospital
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "not permitted")
	}

	group, urgency, err := in.Validate()
	if err != nil {
		return nil, err
	}

	var hospital *dirmodels.Hospital
	if in.HospitalID != nil {
		hospital, err = s.directory.FindHospital(ctx, *in.HospitalID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "hospital not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load hospital")
		}
	}

	location, err := s.resolveLocation(ctx, actor, in.Location, hospital)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	req := &models.BloodRequest{
		ID:             id.RequestID(uuid.New()),
		RequesterType:  requesterType,
		RequestedBy:    actor.UserID,
		PatientName:    in.PatientName,
		PatientAge:     in.PatientAge,
		BloodGroup:     group,
		UnitsRequired:  in.UnitsRequired,
		Reason:         in.Reason,
		Urgency:        urgency,
		RequiredByDate: in.RequiredByDate.UTC(),
		HospitalID:     in.HospitalID,
		HospitalName:   in.HospitalName,
		Location:       location,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	span.SetAttributes(attribute.String("request.id", req.ID.String()))

	s.activity.Record(ctx, audit.Entry{
		ActorID:     actor.UserID,
		Action:      auditevents.ActionRequestCreated,
		Description: "Blood request created for " + req.PatientName,
		Metadata: map[string]any{
			"request_id":  req.ID.String(),
			"blood_group": string(req.BloodGroup),
			"urgency":     string(req.Urgency),
			"new_status":  req.Status.String(),
			"timestamp":   now,
		},
	})
	s.metrics.IncrementCreated(string(urgency))
	return req, nil
}

// resolveLocation prefers the submitted location, then the hospital's, then
// the requester's registered profile. Missing profiles leave it unknown.
func (s *Service) resolveLocation(ctx context.Context, actor *dirmodels.Actor, given *geo.Location, hospital *dirmodels.Hospital) (geo.Location, error) {
	if given != nil && given.Known() {
		return *given, nil
	}
	if hospital != nil {
		return hospital.Location, nil
	}

	var (
		location geo.Location
		err      error
	)
	switch actor.Role {
	case id.RoleHospital:
		var h *dirmodels.Hospital
		if h, err = s.directory.FindHospitalByUser(ctx, actor.UserID); err == nil {
			location = h.Location
		}
	case id.RoleReceiver:
		var r *dirmodels.Receiver
		if r, err = s.directory.FindReceiverByUser(ctx, actor.UserID); err == nil {
			location = r.Location
		}
	}
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return geo.Location{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve request location")
	}
	return location, nil
}

// Get returns one request and its donation record under the read policy.
func (s *Service) Get(ctx context.Context, actor *dirmodels.Actor, requestID id.RequestID) (*models.Detail, error) {
	ctx, span := s.tracer.Start(ctx, "request.Get", trace.WithAttributes(attribute.String("request.id", requestID.String())))
	defer span.End()

	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.lookupError(actor, err)
	}
	if !policy.CanView(actor, req) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not permitted")
	}

	detail := &models.Detail{Request: req}
	rec, err := s.donations.FindByRequest(ctx, requestID)
	switch {
	case err == nil:
		detail.Donation = rec
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation record")
	}
	return detail, nil
}

// List returns the requests visible to actor, newest first.
func (s *Service) List(ctx context.Context, actor *dirmodels.Actor, status *models.Status, limit int) ([]*models.BloodRequest, error) {
	ctx, span := s.tracer.Start(ctx, "request.List")
	defer span.End()

	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	filter := models.ListFilter{Status: status, Limit: limit}
	switch actor.Role {
	case id.RoleAdmin:
	case id.RoleDonor:
		filter.DonorView = &actor.UserID
	default:
		filter.RequestedBy = &actor.UserID
	}

	found, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list requests")
	}
	visible := make([]*models.BloodRequest, 0, len(found))
	for _, req := range found {
		if policy.CanView(actor, req) {
			visible = append(visible, req)
		}
	}
	return visible, nil
}
