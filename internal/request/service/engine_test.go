package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodlink/internal/audit"
	dirmodels "bloodlink/internal/directory/models"
	dirstore "bloodlink/internal/directory/store"
	donormodels "bloodlink/internal/donor/models"
	donorstore "bloodlink/internal/donor/store"
	invmodels "bloodlink/internal/inventory/models"
	invservice "bloodlink/internal/inventory/service"
	invstore "bloodlink/internal/inventory/store"
	"bloodlink/internal/request/models"
	"bloodlink/internal/request/store"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	auditevents "bloodlink/pkg/platform/audit"
	txcontext "bloodlink/pkg/platform/tx"
	"bloodlink/pkg/requestcontext"
)

type recordingActivity struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingActivity) Record(_ context.Context, entry audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingActivity) last() audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

// EngineSuite drives the lifecycle engine over the in-memory stores.
type EngineSuite struct {
	suite.Suite
	requests  *store.InMemoryRequestStore
	donations *store.InMemoryDonationStore
	donors    *donorstore.InMemoryStore
	directory *dirstore.InMemoryStore
	inventory *invstore.InMemoryStore
	activity  *recordingActivity
	service   *Service
	ctx       context.Context
	now       time.Time

	receiver *dirmodels.Actor
	hospital *dirmodels.Actor
	admin    *dirmodels.Actor
	donor    *dirmodels.Actor
	bankID   id.BloodBankID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.requests = store.NewInMemoryRequestStore()
	s.donations = store.NewInMemoryDonationStore()
	s.donors = donorstore.NewInMemoryStore()
	s.directory = dirstore.NewInMemoryStore()
	s.inventory = invstore.NewInMemoryStore()
	s.activity = &recordingActivity{}
	s.now = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	runner := txcontext.NewMemoryRunner()
	s.service = New(s.requests, s.donations, s.donors, s.directory, invservice.New(s.inventory), runner,
		WithActivityRecorder(s.activity))

	s.receiver = &dirmodels.Actor{UserID: id.UserID(uuid.New()), Role: id.RoleReceiver}
	s.hospital = &dirmodels.Actor{UserID: id.UserID(uuid.New()), Role: id.RoleHospital}
	s.admin = &dirmodels.Actor{UserID: id.UserID(uuid.New()), Role: id.RoleAdmin}
	s.donor = s.newDonorActor(nil)

	bank := &dirmodels.BloodBank{ID: id.BloodBankID(uuid.New()), UserID: id.UserID(uuid.New()), Name: "Central Bank"}
	s.Require().NoError(s.directory.SaveBloodBank(s.ctx, bank))
	s.bankID = bank.ID
}

func (s *EngineSuite) newDonorActor(lastDonation *time.Time) *dirmodels.Actor {
	profile := &donormodels.Profile{
		ID:               id.DonorID(uuid.New()),
		UserID:           id.UserID(uuid.New()),
		Name:             "Donor",
		BloodGroup:       id.BloodGroupOPos,
		LastDonationDate: lastDonation,
		IsAvailable:      true,
	}
	s.Require().NoError(s.donors.Save(s.ctx, profile))
	donorID := profile.ID
	return &dirmodels.Actor{UserID: profile.UserID, Role: id.RoleDonor, DonorProfile: &donorID}
}

func (s *EngineSuite) create(actor *dirmodels.Actor) *models.BloodRequest {
	req, err := s.service.Create(s.ctx, actor, models.CreateInput{
		PatientName:    "Nasrin Akter",
		PatientAge:     34,
		BloodGroup:     "O+",
		UnitsRequired:  2,
		Reason:         "surgery",
		RequiredByDate: s.now.Add(72 * time.Hour),
		HospitalName:   "Square Hospital",
	})
	s.Require().NoError(err)
	return req
}

func (s *EngineSuite) move(actor *dirmodels.Actor, req *models.BloodRequest, status models.Status, extra ...func(*models.TransitionInput)) (*models.BloodRequest, error) {
	in := models.TransitionInput{Target: models.TargetOf(status)}
	for _, f := range extra {
		f(&in)
	}
	return s.service.Transition(s.ctx, req.ID, actor, in)
}

func (s *EngineSuite) donationsFor(req *models.BloodRequest) []*models.DonationRecord {
	recs, err := s.donations.ListByRequest(s.ctx, req.ID)
	s.Require().NoError(err)
	return recs
}

func (s *EngineSuite) profile(actor *dirmodels.Actor) *donormodels.Profile {
	p, err := s.donors.FindByID(s.ctx, *actor.DonorProfile)
	s.Require().NoError(err)
	return p
}

func (s *EngineSuite) TestCreateRecordsActivity() {
	req := s.create(s.receiver)

	s.Equal(models.StatusPending, req.Status)
	s.Equal(models.RequesterReceiver, req.RequesterType)
	s.Equal(1, req.Version)
	s.Equal(auditevents.ActionRequestCreated, s.activity.last().Action)

	_, err := s.service.Create(s.ctx, s.donor, models.CreateInput{})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *EngineSuite) TestApproveByStaffRequiresAssignedDonor() {
	req := s.create(s.hospital)

	_, err := s.move(s.hospital, req, models.StatusApproved)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)

	_, err = s.move(s.hospital, req, models.StatusApproved, func(in *models.TransitionInput) {
		missing := id.DonorID(uuid.New())
		in.AssignedDonor = &missing
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
	s.Empty(s.donationsFor(req))
}

func (s *EngineSuite) TestApproveByStaffSchedulesDonation() {
	req := s.create(s.hospital)

	approved, err := s.move(s.hospital, req, models.StatusApproved, func(in *models.TransitionInput) {
		in.AssignedDonor = s.donor.DonorProfile
	})
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Equal(s.hospital.UserID, *approved.ApprovedBy)
	s.Equal(s.now, *approved.ApprovedAt)
	s.Equal(2, approved.Version)

	recs := s.donationsFor(req)
	s.Require().Len(recs, 1)
	s.Equal(models.DonationScheduled, recs[0].Status)
	s.Equal(*s.donor.DonorProfile, recs[0].DonorID)
	s.Equal(req.RequiredByDate, recs[0].DonationDate)
	s.Equal(2.0, recs[0].UnitsDonated)
	s.Equal(s.hospital.UserID, *recs[0].CollectedBy)

	entry := s.activity.last()
	s.Equal(auditevents.ActionRequestApproved, entry.Action)
	s.Equal("PENDING", entry.Metadata["old_status"])
	s.Equal("APPROVED", entry.Metadata["new_status"])
	s.Equal(req.ID.String(), entry.Metadata["request_id"])
}

func (s *EngineSuite) TestDonorSelfApprovalHasNoCollector() {
	req := s.create(s.receiver)

	_, err := s.move(s.donor, req, models.StatusApproved)
	s.Require().NoError(err)

	recs := s.donationsFor(req)
	s.Require().Len(recs, 1)
	s.Nil(recs[0].CollectedBy)
}

func (s *EngineSuite) TestIneligibleDonorCannotApprove() {
	last := s.now.AddDate(0, 0, -10)
	recent := s.newDonorActor(&last)
	req := s.create(s.receiver)

	_, err := s.move(recent, req, models.StatusApproved)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "80 days")
}

func (s *EngineSuite) TestFullLifecycleLeavesOneCompletedRecord() {
	req := s.create(s.receiver)

	_, err := s.move(s.donor, req, models.StatusApproved)
	s.Require().NoError(err)
	fulfilled, err := s.move(s.donor, req, models.StatusFulfilled)
	s.Require().NoError(err)

	s.Equal(models.StatusFulfilled, fulfilled.Status)
	s.Equal(s.donor.UserID, *fulfilled.FulfilledBy)
	s.Equal(s.donor.UserID, *fulfilled.ApprovedBy)

	recs := s.donationsFor(req)
	s.Require().Len(recs, 1)
	s.Equal(models.DonationCompleted, recs[0].Status)
	s.Equal(models.CompletedNote, recs[0].Notes)
	s.Equal(s.donor.UserID, *recs[0].CollectedBy)

	p := s.profile(s.donor)
	s.Equal(1, p.TotalDonations)
	s.Equal(1, p.DonationPoints)
	s.Require().NotNil(p.LastDonationDate)
	s.Equal(donormodels.DateOf(s.now), *p.LastDonationDate)
	s.Equal(auditevents.ActionDonationCompleted, s.activity.last().Action)
}

func (s *EngineSuite) TestFulfilCreditsApproverNotAssignee() {
	req := s.create(s.hospital)
	_, err := s.move(s.hospital, req, models.StatusApproved, func(in *models.TransitionInput) {
		in.AssignedDonor = s.donor.DonorProfile
	})
	s.Require().NoError(err)

	// the hospital approved, and it has no donor profile to credit
	_, err = s.move(s.hospital, req, models.StatusFulfilled)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)

	got, err := s.requests.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
	s.Equal(0, s.profile(s.donor).TotalDonations)
	s.Equal(models.DonationScheduled, s.donationsFor(req)[0].Status)
}

func (s *EngineSuite) TestCancelAfterApprovalUpdatesRecord() {
	req := s.create(s.receiver)
	_, err := s.move(s.donor, req, models.StatusApproved)
	s.Require().NoError(err)

	cancelled, err := s.move(s.donor, req, models.StatusCancelled)
	s.Require().NoError(err)
	s.Equal(models.CancellationReason, cancelled.RejectionReason)
	s.Equal(s.donor.UserID, *cancelled.CancelledBy)

	recs := s.donationsFor(req)
	s.Require().Len(recs, 1)
	s.Equal(models.DonationCancelled, recs[0].Status)
	s.Contains(recs[0].Notes, "DONOR")
}

func (s *EngineSuite) TestReapprovalClearsCancellationDetails() {
	req := s.create(s.receiver)
	_, err := s.move(s.donor, req, models.StatusApproved)
	s.Require().NoError(err)
	_, err = s.move(s.donor, req, models.StatusCancelled)
	s.Require().NoError(err)
	_, err = s.move(s.receiver, req, models.StatusPending)
	s.Require().NoError(err)

	_, err = s.move(s.donor, req, models.StatusApproved)
	s.Require().NoError(err)

	recs := s.donationsFor(req)
	s.Require().Len(recs, 1)
	s.Equal(models.DonationScheduled, recs[0].Status)
	s.Empty(recs[0].RejectionReason)
	s.Empty(recs[0].Notes)
}

func (s *EngineSuite) TestCancelPendingByRequesterWritesNoRecord() {
	req := s.create(s.receiver)

	_, err := s.move(s.receiver, req, models.StatusCancelled)
	s.Require().NoError(err)
	s.Empty(s.donationsFor(req))
}

func (s *EngineSuite) TestRejectUsesDefaultReason() {
	req := s.create(s.hospital)

	rejected, err := s.move(s.hospital, req, models.StatusRejected)
	s.Require().NoError(err)
	s.Equal(models.DefaultRejectionReason, rejected.RejectionReason)
	s.Empty(s.donationsFor(req))

	_, err = s.move(s.hospital, req, models.StatusPending)
	s.Require().NoError(err)
	_, err = s.move(s.hospital, req, models.StatusApproved, func(in *models.TransitionInput) {
		in.AssignedDonor = s.donor.DonorProfile
	})
	s.Require().NoError(err)
	_, err = s.move(s.hospital, req, models.StatusPending)
	s.Require().NoError(err)

	_, err = s.move(s.hospital, req, models.StatusRejected, func(in *models.TransitionInput) {
		in.RejectionReason = "no matching stock"
	})
	s.Require().NoError(err)
	recs := s.donationsFor(req)
	s.Require().Len(recs, 1)
	s.Equal(models.DonationRejected, recs[0].Status)
	s.Equal("no matching stock", recs[0].RejectionReason)
}

func (s *EngineSuite) TestResetClearsActorsAndKeepsCredit() {
	req := s.create(s.receiver)
	_, err := s.move(s.donor, req, models.StatusApproved)
	s.Require().NoError(err)
	_, err = s.move(s.donor, req, models.StatusFulfilled)
	s.Require().NoError(err)

	reset, err := s.move(s.receiver, req, models.StatusPending)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, reset.Status)
	s.Nil(reset.ApprovedBy)
	s.Nil(reset.FulfilledBy)
	s.Nil(reset.CancelledBy)
	s.Nil(reset.RejectedBy)
	s.Equal(auditevents.ActionRequestReset, s.activity.last().Action)

	s.Equal(1, s.profile(s.donor).TotalDonations)
	s.Equal(models.DonationCompleted, s.donationsFor(req)[0].Status)
}

func (s *EngineSuite) TestIllegalTransitionIsValidationError() {
	req := s.create(s.receiver)

	_, err := s.move(s.admin, req, models.StatusFulfilled)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
}

func (s *EngineSuite) TestAdminOverwriteIsRecordedAsUpdate() {
	req := s.create(s.receiver)
	target, err := models.ParseTarget("ON_HOLD")
	s.Require().NoError(err)

	updated, err := s.service.Transition(s.ctx, req.ID, s.admin, models.TransitionInput{Target: target})
	s.Require().NoError(err)
	s.Equal(models.Status("ON_HOLD"), updated.Status)
	s.Equal(auditevents.ActionRequestUpdated, s.activity.last().Action)

	_, err = s.service.Transition(s.ctx, req.ID, s.receiver, models.TransitionInput{Target: target})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *EngineSuite) TestAssignedBankTierInMetadata() {
	s.Require().NoError(s.inventory.Upsert(s.ctx, &invmodels.Inventory{
		ID: id.InventoryID(uuid.New()), BloodBankID: s.bankID, BloodGroup: id.BloodGroupOPos,
		UnitsAvailable: 3, MinimumThreshold: 10, CriticalThreshold: 5,
	}))
	req := s.create(s.hospital)

	approved, err := s.move(s.hospital, req, models.StatusApproved, func(in *models.TransitionInput) {
		in.AssignedDonor = s.donor.DonorProfile
		in.AssignedBloodBank = &s.bankID
	})
	s.Require().NoError(err)
	s.Equal(s.bankID, *approved.AssignedBloodBank)
	s.Equal("critical", s.activity.last().Metadata["inventory_tier"])
	s.Equal(s.bankID, *s.donationsFor(req)[0].BloodBankID)

	other := s.create(s.hospital)
	otherBank := &dirmodels.BloodBank{ID: id.BloodBankID(uuid.New()), UserID: id.UserID(uuid.New()), Name: "Empty"}
	s.Require().NoError(s.directory.SaveBloodBank(s.ctx, otherBank))
	_, err = s.move(s.hospital, other, models.StatusApproved, func(in *models.TransitionInput) {
		in.AssignedDonor = s.donor.DonorProfile
		in.AssignedBloodBank = &otherBank.ID
	})
	s.Require().NoError(err)
	s.Equal("unknown", s.activity.last().Metadata["inventory_tier"])
}

func (s *EngineSuite) TestStaleExpectedVersionConflicts() {
	req := s.create(s.receiver)
	_, err := s.move(s.donor, req, models.StatusApproved)
	s.Require().NoError(err)

	_, err = s.move(s.receiver, req, models.StatusCancelled, func(in *models.TransitionInput) {
		stale := 1
		in.ExpectedVersion = &stale
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)
}

func (s *EngineSuite) TestConcurrentFulfilmentsNeverLoseCredit() {
	const n = 8
	reqs := make([]*models.BloodRequest, n)
	for i := range reqs {
		reqs[i] = s.create(s.receiver)
		_, err := s.move(s.donor, reqs[i], models.StatusApproved)
		s.Require().NoError(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, req := range reqs {
		wg.Add(1)
		go func(req *models.BloodRequest) {
			defer wg.Done()
			_, err := s.move(s.donor, req, models.StatusFulfilled)
			errs <- err
		}(req)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	p := s.profile(s.donor)
	s.Equal(n, p.TotalDonations)
	s.Equal(n, p.DonationPoints)
}

func (s *EngineSuite) TestReadPolicyHidesExistence() {
	req := s.create(s.receiver)
	stranger := &dirmodels.Actor{UserID: id.UserID(uuid.New()), Role: id.RoleReceiver}

	_, err := s.service.Get(s.ctx, stranger, req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Get(s.ctx, stranger, id.RequestID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Get(s.ctx, s.admin, id.RequestID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	detail, err := s.service.Get(s.ctx, s.receiver, req.ID)
	s.Require().NoError(err)
	s.Nil(detail.Donation)
}

func (s *EngineSuite) TestStaffCannotMoveRequestsTheyCannotRead() {
	req := s.create(s.receiver)
	bankID := s.bankID
	bankActor := &dirmodels.Actor{UserID: id.UserID(uuid.New()), Role: id.RoleBloodBank, BloodBankProfile: &bankID}

	_, err := s.move(bankActor, req, models.StatusRejected)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)
	_, err = s.service.Get(s.ctx, bankActor, req.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)

	_, err = s.move(s.hospital, req, models.StatusApproved, func(in *models.TransitionInput) {
		in.AssignedDonor = s.donor.DonorProfile
	})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)

	got, err := s.requests.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(1, got.Version)
}

func (s *EngineSuite) TestListAppliesReadPolicy() {
	mine := s.create(s.receiver)
	approvedByOther := s.create(s.receiver)
	otherDonor := s.newDonorActor(nil)
	_, err := s.move(otherDonor, approvedByOther, models.StatusApproved)
	s.Require().NoError(err)
	s.create(s.hospital)

	list, err := s.service.List(s.ctx, s.donor, nil, 0)
	s.Require().NoError(err)
	ids := map[id.RequestID]bool{}
	for _, r := range list {
		ids[r.ID] = true
	}
	s.True(ids[mine.ID])
	s.False(ids[approvedByOther.ID])

	list, err = s.service.List(s.ctx, s.receiver, nil, 0)
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = s.service.List(s.ctx, s.admin, nil, 0)
	s.Require().NoError(err)
	s.Len(list, 3)
}

type failingPublisher struct{}

func (failingPublisher) Emit(context.Context, auditevents.Event) error {
	return errors.New("audit sink down")
}

func (s *EngineSuite) TestAuditFailureDoesNotRollBack() {
	runner := txcontext.NewMemoryRunner()
	svc := New(s.requests, s.donations, s.donors, s.directory, invservice.New(s.inventory), runner,
		WithActivityRecorder(audit.NewRecorder(failingPublisher{})))

	req := s.create(s.receiver)
	_, err := svc.Transition(s.ctx, req.ID, s.donor, models.TransitionInput{Target: models.TargetOf(models.StatusApproved)})
	s.Require().NoError(err)

	got, err := s.requests.FindByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
}
