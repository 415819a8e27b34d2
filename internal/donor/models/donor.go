package models

import (
	"time"

	"bloodlink/internal/geo"
	id "bloodlink/pkg/domain"
)

// EligibilityWindowDays is the minimum interval between completed donations.
const EligibilityWindowDays = 90

// Profile is a donor's registered profile.
//
// Invariants:
//   - TotalDonations and DonationPoints never decrease.
//   - LastDonationDate, TotalDonations and DonationPoints change only when a
//     request crediting this donor is fulfilled.
type Profile struct {
	ID               id.DonorID    `json:"id"`
	UserID           id.UserID     `json:"user_id"`
	Name             string        `json:"name"`
	BloodGroup       id.BloodGroup `json:"blood_group"`
	LastDonationDate *time.Time    `json:"last_donation_date,omitempty"`
	TotalDonations   int           `json:"total_donations"`
	DonationPoints   int           `json:"donation_points"`
	IsAvailable      bool          `json:"is_available"`
	Location         geo.Location  `json:"location"`
}

// Eligibility is the derived donation readiness of a donor. Never stored.
type Eligibility struct {
	DonorID           id.DonorID `json:"donor_id"`
	CanDonate         bool       `json:"can_donate"`
	DaysUntilEligible int        `json:"days_until_eligible"`
	LastDonationDate  *time.Time `json:"last_donation_date,omitempty"`
}

// CanDonate is true when the donor never donated, or donated at least
// EligibilityWindowDays calendar days before today.
func CanDonate(lastDonation *time.Time, today time.Time) bool {
	if lastDonation == nil {
		return true
	}
	return daysBetween(*lastDonation, today) >= EligibilityWindowDays
}

// DaysUntilEligible is 0 for first-time donors, else the days left in the
// cooldown window, floored at 0.
func DaysUntilEligible(lastDonation *time.Time, today time.Time) int {
	if lastDonation == nil {
		return 0
	}
	return max(0, EligibilityWindowDays-daysBetween(*lastDonation, today))
}

// Evaluate derives the donor's eligibility as of today.
func Evaluate(p *Profile, today time.Time) Eligibility {
	return Eligibility{
		DonorID:           p.ID,
		CanDonate:         CanDonate(p.LastDonationDate, today),
		DaysUntilEligible: DaysUntilEligible(p.LastDonationDate, today),
		LastDonationDate:  p.LastDonationDate,
	}
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b in UTC.
func daysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
