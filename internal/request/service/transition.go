package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bloodlink/internal/audit"
	dirmodels "bloodlink/internal/directory/models"
	donormodels "bloodlink/internal/donor/models"
	"bloodlink/internal/request/models"
	"bloodlink/internal/request/policy"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	auditevents "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// outcome is what one transition decided before the request row is written.
type outcome struct {
	action      auditevents.Action
	description string
	metadata    map[string]any
	// apply runs the DonationRecord and donor side effects after the request
	// row has been written inside the same unit of work.
	apply    func(ctx context.Context) error
	credited bool
}

// Transition moves a request to in.Target. The status change, the donation
// record and the donor counters commit or roll back together; the activity
// entry is recorded after commit.
func (s *Service) Transition(ctx context.Context, requestID id.RequestID, actor *dirmodels.Actor, in models.TransitionInput) (*models.BloodRequest, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "request.Transition", trace.WithAttributes(
		attribute.String("request.id", requestID.String()),
		attribute.String("request.target", in.Target.String()),
	))
	defer span.End()

	if actor == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}

	var (
		updated *models.BloodRequest
		result  *outcome
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		req, out, err := s.transition(ctx, requestID, actor, in)
		if err != nil {
			return err
		}
		updated, result = req, out
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		s.metrics.ObserveTransition(in.Target.String(), string(dErrors.CodeOf(err)), start)
		if dErrors.Is(err, dErrors.CodeInternal) {
			s.logger.ErrorContext(ctx, "request transition failed",
				"request_id", requestcontext.RequestID(ctx),
				"blood_request_id", requestID.String(),
				"target", in.Target.String(),
				"error", err,
			)
		}
		return nil, err
	}

	s.activity.Record(ctx, audit.Entry{
		ActorID:     actor.UserID,
		Action:      result.action,
		Description: result.description,
		Metadata:    result.metadata,
	})
	if result.credited {
		s.metrics.IncrementDonationsCredited()
	}
	s.metrics.ObserveTransition(in.Target.String(), "ok", start)
	s.logger.InfoContext(ctx, "request transitioned",
		"event", string(result.action),
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"blood_request_id", requestID.String(),
		"old_status", result.metadata["old_status"],
		"new_status", updated.Status.String(),
	)
	return updated, nil
}

func (s *Service) transition(ctx context.Context, requestID id.RequestID, actor *dirmodels.Actor, in models.TransitionInput) (*models.BloodRequest, *outcome, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, nil, s.lookupError(actor, err)
	}
	if !policy.CanTransition(actor, req, in.Target) {
		return nil, nil, dErrors.New(dErrors.CodeForbidden, "not permitted")
	}
	if in.ExpectedVersion != nil && *in.ExpectedVersion != req.Version {
		return nil, nil, dErrors.New(dErrors.CodeConflict, "request has been modified; reload and retry")
	}
	if err := models.CheckTransition(req.Status, in.Target); err != nil {
		return nil, nil, err
	}

	now := requestcontext.Now(ctx)
	version := req.Version
	oldStatus := req.Status

	var out *outcome
	switch {
	case in.Target.IsOther():
		out = s.overwrite(req, in.Target)
	case in.Target.Status() == models.StatusApproved:
		out, err = s.approve(ctx, req, actor, in, now)
	case in.Target.Status() == models.StatusCancelled:
		out = s.cancel(req, actor, now)
	case in.Target.Status() == models.StatusRejected:
		out = s.reject(req, actor, in.RejectionReason, now)
	case in.Target.Status() == models.StatusFulfilled:
		out, err = s.fulfil(ctx, req, actor, now)
	case in.Target.Status() == models.StatusPending:
		out = s.reset(req)
	}
	if err != nil {
		return nil, nil, err
	}

	req.UpdatedAt = now
	if err := s.requests.Update(ctx, req, version); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, nil, dErrors.New(dErrors.CodeConflict, "request was modified concurrently")
		}
		return nil, nil, s.lookupError(actor, err)
	}
	if out.apply != nil {
		if err := out.apply(ctx); err != nil {
			return nil, nil, err
		}
	}

	metadata := map[string]any{
		"request_id": req.ID.String(),
		"old_status": oldStatus.String(),
		"new_status": req.Status.String(),
		"timestamp":  now.Format(time.RFC3339),
	}
	for k, v := range out.metadata {
		metadata[k] = v
	}
	out.metadata = metadata
	return req, out, nil
}

// lookupError hides whether a request exists from anyone but admins.
func (s *Service) lookupError(actor *dirmodels.Actor, err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		if actor.IsAdmin() {
			return dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return dErrors.New(dErrors.CodeForbidden, "not permitted")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
}

func (s *Service) approve(ctx context.Context, req *models.BloodRequest, actor *dirmodels.Actor, in models.TransitionInput, now time.Time) (*outcome, error) {
	var (
		donor       *donormodels.Profile
		collectedBy *id.UserID
		err         error
	)
	if actor.Role == id.RoleDonor {
		if actor.DonorProfile == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "acting donor has no donor profile")
		}
		donor, err = s.findDonor(ctx, *actor.DonorProfile)
	} else {
		if in.AssignedDonor == nil || in.AssignedDonor.IsNil() {
			return nil, dErrors.New(dErrors.CodeValidation, "assigned_donor is required to approve a request")
		}
		donor, err = s.findDonor(ctx, *in.AssignedDonor)
		collector := actor.UserID
		collectedBy = &collector
	}
	if err != nil {
		return nil, err
	}

	eligibility := donormodels.Evaluate(donor, now)
	if !eligibility.CanDonate {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("donor is not eligible to donate for another %d days", eligibility.DaysUntilEligible))
	}

	metadata := map[string]any{"donor_id": donor.ID.String()}
	if in.AssignedBloodBank != nil {
		tier, err := s.assignBloodBank(ctx, req, *in.AssignedBloodBank)
		if err != nil {
			return nil, err
		}
		metadata["blood_bank_id"] = in.AssignedBloodBank.String()
		metadata["inventory_tier"] = tier
	}

	approver := actor.UserID
	approvedAt := now
	req.ApprovedBy = &approver
	req.ApprovedAt = &approvedAt
	req.Status = models.StatusApproved

	donorID := donor.ID
	return &outcome{
		action:      auditevents.ActionRequestApproved,
		description: fmt.Sprintf("Blood request %s approved", req.ID),
		metadata:    metadata,
		apply: func(ctx context.Context) error {
			_, err := s.findOrCreateDonation(ctx, req, &donorID, now, func(rec *models.DonationRecord) {
				rec.DonorID = donorID
				rec.BloodGroup = req.BloodGroup
				rec.BloodBankID = req.AssignedBloodBank
				rec.DonationDate = req.RequiredByDate
				rec.UnitsDonated = float64(req.UnitsRequired)
				rec.CollectedBy = collectedBy
				rec.Status = models.DonationScheduled
				rec.RejectionReason = ""
				rec.Notes = ""
			})
			return err
		},
	}, nil
}

// assignBloodBank sets the bank on the request and returns its stock tier
// for the request's group, or "unknown" when the bank holds no row.
func (s *Service) assignBloodBank(ctx context.Context, req *models.BloodRequest, bankID id.BloodBankID) (string, error) {
	if _, err := s.directory.FindBloodBank(ctx, bankID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "blood bank not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood bank")
	}
	assigned := bankID
	req.AssignedBloodBank = &assigned

	row, err := s.inventory.ClassifyInventory(ctx, bankID, req.BloodGroup)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return "unknown", nil
		}
		return "", err
	}
	return string(row.Tier), nil
}

func (s *Service) cancel(req *models.BloodRequest, actor *dirmodels.Actor, now time.Time) *outcome {
	canceller := actor.UserID
	req.CancelledBy = &canceller
	req.RejectionReason = models.CancellationReason
	req.Status = models.StatusCancelled

	note := fmt.Sprintf("Request cancelled by %s (%s)", actor.UserID, actor.Role)
	return &outcome{
		action:      auditevents.ActionRequestCancelled,
		description: fmt.Sprintf("Blood request %s cancelled", req.ID),
		apply: func(ctx context.Context) error {
			// a new record needs a donor; only a donor actor can supply one
			_, err := s.findOrCreateDonation(ctx, req, actor.DonorProfile, now, func(rec *models.DonationRecord) {
				rec.Status = models.DonationCancelled
				rec.RejectionReason = models.CancellationReason
				rec.Notes = note
			})
			return err
		},
	}
}

func (s *Service) reject(req *models.BloodRequest, actor *dirmodels.Actor, reason string, now time.Time) *outcome {
	if reason == "" {
		reason = models.DefaultRejectionReason
	}
	rejecter := actor.UserID
	req.RejectedBy = &rejecter
	req.RejectionReason = reason
	req.Status = models.StatusRejected

	note := fmt.Sprintf("Request rejected by %s (%s)", actor.UserID, actor.Role)
	return &outcome{
		action:      auditevents.ActionRequestRejected,
		description: fmt.Sprintf("Blood request %s rejected", req.ID),
		metadata:    map[string]any{"rejection_reason": reason},
		apply: func(ctx context.Context) error {
			_, err := s.findOrCreateDonation(ctx, req, nil, now, func(rec *models.DonationRecord) {
				rec.Status = models.DonationRejected
				rec.RejectionReason = reason
				rec.Notes = note
			})
			return err
		},
	}
}

func (s *Service) fulfil(ctx context.Context, req *models.BloodRequest, actor *dirmodels.Actor, now time.Time) (*outcome, error) {
	donor, err := s.creditedDonor(ctx, req)
	if err != nil {
		return nil, err
	}

	fulfiller := actor.UserID
	approvedAt := now
	req.FulfilledBy = &fulfiller
	req.ApprovedAt = &approvedAt
	req.Status = models.StatusFulfilled

	donorID := donor.ID
	out := &outcome{
		action:      auditevents.ActionDonationCompleted,
		description: fmt.Sprintf("Donation completed for blood request %s", req.ID),
		metadata:    map[string]any{"donor_id": donorID.String()},
		credited:    true,
	}
	out.apply = func(ctx context.Context) error {
		_, err := s.findOrCreateDonation(ctx, req, &donorID, now, func(rec *models.DonationRecord) {
			rec.DonorID = donorID
			rec.Status = models.DonationCompleted
			rec.CollectedBy = &fulfiller
			rec.Notes = models.CompletedNote
		})
		if err != nil {
			return err
		}
		profile, err := s.donors.RecordDonation(ctx, donorID, now)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "donor not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit donor")
		}
		out.metadata["total_donations"] = profile.TotalDonations
		return nil
	}
	return out, nil
}

// creditedDonor picks the donor credited on fulfilment: the donor profile of
// whoever approved the request, which is not necessarily the donor assigned
// at approval.
func (s *Service) creditedDonor(ctx context.Context, req *models.BloodRequest) (*donormodels.Profile, error) {
	if req.ApprovedBy == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "approving user has no donor profile")
	}
	donor, err := s.donors.FindByUserID(ctx, *req.ApprovedBy)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "approving user has no donor profile")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	return donor, nil
}

func (s *Service) reset(req *models.BloodRequest) *outcome {
	req.ClearActors()
	req.Status = models.StatusPending
	return &outcome{
		action:      auditevents.ActionRequestReset,
		description: fmt.Sprintf("Blood request %s reset to pending", req.ID),
	}
}

func (s *Service) overwrite(req *models.BloodRequest, target models.Target) *outcome {
	req.Status = target.Status()
	return &outcome{
		action:      auditevents.ActionRequestUpdated,
		description: fmt.Sprintf("Blood request %s status set to %s", req.ID, target),
	}
}

func (s *Service) findDonor(ctx context.Context, donorID id.DonorID) (*donormodels.Profile, error) {
	donor, err := s.donors.FindByID(ctx, donorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor")
	}
	return donor, nil
}

// findOrCreateDonation loads the request's donation record and applies
// mutate. Without an existing record one is created for donorID; a nil
// donorID means nothing is written.
func (s *Service) findOrCreateDonation(
	ctx context.Context,
	req *models.BloodRequest,
	donorID *id.DonorID,
	now time.Time,
	mutate func(rec *models.DonationRecord),
) (*models.DonationRecord, error) {
	rec, err := s.donations.FindByRequest(ctx, req.ID)
	switch {
	case err == nil:
		mutate(rec)
		rec.UpdatedAt = now
		if err := s.donations.Update(ctx, rec); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donation record")
		}
		return rec, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation record")
	case donorID == nil:
		return nil, nil
	}

	requestID := req.ID
	rec = &models.DonationRecord{
		ID:             id.DonationID(uuid.New()),
		DonorID:        *donorID,
		BloodBankID:    req.AssignedBloodBank,
		DonationDate:   req.RequiredByDate,
		BloodGroup:     req.BloodGroup,
		UnitsDonated:   float64(req.UnitsRequired),
		Status:         models.DonationScheduled,
		RelatedRequest: &requestID,
		CreatedAt:      now,
	}
	mutate(rec)
	rec.UpdatedAt = now
	if err := s.donations.Create(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "request was modified concurrently")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation record")
	}
	return rec, nil
}
