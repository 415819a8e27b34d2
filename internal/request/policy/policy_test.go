package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	dirmodels "bloodlink/internal/directory/models"
	"bloodlink/internal/request/models"
	id "bloodlink/pkg/domain"
)

func newUser() id.UserID { return id.UserID(uuid.New()) }

func actor(role id.Role) *dirmodels.Actor {
	return &dirmodels.Actor{UserID: newUser(), Role: role}
}

func TestCanView(t *testing.T) {
	receiver := actor(id.RoleReceiver)
	donor := actor(id.RoleDonor)
	otherDonor := actor(id.RoleDonor)
	admin := actor(id.RoleAdmin)

	pending := &models.BloodRequest{RequestedBy: receiver.UserID, Status: models.StatusPending}
	approved := &models.BloodRequest{RequestedBy: receiver.UserID, Status: models.StatusApproved, ApprovedBy: &donor.UserID}
	rejected := &models.BloodRequest{RequestedBy: receiver.UserID, Status: models.StatusRejected, ApprovedBy: &donor.UserID}

	assert.True(t, CanView(receiver, pending))
	assert.True(t, CanView(receiver, approved))
	assert.True(t, CanView(admin, rejected))

	assert.True(t, CanView(donor, pending))
	assert.True(t, CanView(donor, approved))
	assert.False(t, CanView(otherDonor, approved))
	assert.False(t, CanView(donor, rejected))

	assert.False(t, CanView(actor(id.RoleReceiver), pending))
	assert.False(t, CanView(actor(id.RoleHospital), pending))
	assert.False(t, CanView(nil, pending))
}

func TestStaffMoveOnlyWhatTheyCanView(t *testing.T) {
	hospital := actor(id.RoleHospital)
	hospitalID := id.HospitalID(uuid.New())
	hospital.HospitalProfile = &hospitalID

	bank := actor(id.RoleBloodBank)
	bankID := id.BloodBankID(uuid.New())
	bank.BloodBankProfile = &bankID
	elsewhere := id.BloodBankID(uuid.New())

	named := &models.BloodRequest{RequestedBy: newUser(), Status: models.StatusPending, HospitalID: &hospitalID}
	unassigned := &models.BloodRequest{RequestedBy: newUser(), Status: models.StatusPending, HospitalName: "Clinic"}
	otherBank := &models.BloodRequest{RequestedBy: newUser(), Status: models.StatusPending, AssignedBloodBank: &elsewhere}
	ownByBank := &models.BloodRequest{RequestedBy: bank.UserID, Status: models.StatusPending, AssignedBloodBank: &bankID}

	assert.False(t, CanTransition(bank, otherBank, models.TargetOf(models.StatusRejected)))
	assert.False(t, CanTransition(bank, unassigned, models.TargetOf(models.StatusApproved)))
	assert.True(t, CanTransition(bank, ownByBank, models.TargetOf(models.StatusRejected)))

	assert.False(t, CanView(hospital, named))
	assert.False(t, CanTransition(hospital, named, models.TargetOf(models.StatusApproved)))

	for _, req := range []*models.BloodRequest{named, unassigned, otherBank, ownByBank} {
		for _, a := range []*dirmodels.Actor{hospital, bank} {
			for _, status := range []models.Status{models.StatusApproved, models.StatusRejected, models.StatusFulfilled} {
				if CanTransition(a, req, models.TargetOf(status)) {
					assert.True(t, CanView(a, req), "%s may move a request it cannot read", a.Role)
				}
			}
		}
	}
}

func TestCanTransition(t *testing.T) {
	receiver := actor(id.RoleReceiver)
	donor := actor(id.RoleDonor)
	admin := actor(id.RoleAdmin)
	hospital := actor(id.RoleHospital)

	own := func(status models.Status) *models.BloodRequest {
		return &models.BloodRequest{RequestedBy: receiver.UserID, Status: status}
	}
	byHospital := func(status models.Status) *models.BloodRequest {
		return &models.BloodRequest{RequestedBy: hospital.UserID, Status: status}
	}
	approvedBy := func(u id.UserID) *models.BloodRequest {
		return &models.BloodRequest{RequestedBy: receiver.UserID, Status: models.StatusApproved, ApprovedBy: &u}
	}
	other, _ := models.ParseTarget("ON_HOLD")

	cases := []struct {
		name   string
		actor  *dirmodels.Actor
		req    *models.BloodRequest
		target models.Target
		want   bool
	}{
		{"donor self-approves pending", donor, own(models.StatusPending), models.TargetOf(models.StatusApproved), true},
		{"receiver cannot approve", receiver, own(models.StatusPending), models.TargetOf(models.StatusApproved), false},
		{"hospital approves its own", hospital, byHospital(models.StatusPending), models.TargetOf(models.StatusApproved), true},
		{"donor cannot reject", donor, own(models.StatusPending), models.TargetOf(models.StatusRejected), false},
		{"hospital rejects its own", hospital, byHospital(models.StatusPending), models.TargetOf(models.StatusRejected), true},
		{"requester cancels", receiver, own(models.StatusPending), models.TargetOf(models.StatusCancelled), true},
		{"approving donor cancels", donor, approvedBy(donor.UserID), models.TargetOf(models.StatusCancelled), true},
		{"approving donor fulfils", donor, approvedBy(donor.UserID), models.TargetOf(models.StatusFulfilled), true},
		{"requester cannot fulfil", receiver, approvedBy(donor.UserID), models.TargetOf(models.StatusFulfilled), false},
		{"requester resets", receiver, own(models.StatusRejected), models.TargetOf(models.StatusPending), true},
		{"donor cannot reset", donor, approvedBy(donor.UserID), models.TargetOf(models.StatusPending), false},
		{"admin overwrites", admin, own(models.StatusPending), other, true},
		{"requester cannot overwrite", receiver, own(models.StatusPending), other, false},
		{"unseen request", actor(id.RoleReceiver), own(models.StatusPending), models.TargetOf(models.StatusCancelled), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.actor, tc.req, tc.target))
		})
	}
}
