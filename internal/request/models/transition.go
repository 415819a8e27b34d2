package models

import id "bloodlink/pkg/domain"

// TransitionInput carries the target status and the optional extras some
// targets need.
type TransitionInput struct {
	Target            Target
	AssignedDonor     *id.DonorID
	AssignedBloodBank *id.BloodBankID
	RejectionReason   string
	// ExpectedVersion fails the transition fast when the caller read a stale
	// request.
	ExpectedVersion *int
}

const (
	DefaultRejectionReason = "Request rejected"
	CancellationReason     = "Request Cancelled by Donor"
	CompletedNote          = "Donation completed"
)
