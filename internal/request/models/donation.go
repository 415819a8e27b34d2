package models

import (
	"time"

	id "bloodlink/pkg/domain"
)

type DonationStatus string

const (
	DonationScheduled DonationStatus = "SCHEDULED"
	DonationCompleted DonationStatus = "COMPLETED"
	DonationCancelled DonationStatus = "CANCELLED"
	DonationRejected  DonationStatus = "REJECTED"
)

// DonationRecord is one donor's contribution against a request. A request
// has at most one.
type DonationRecord struct {
	ID              id.DonationID   `json:"id"`
	Number          int64           `json:"number"`
	DonorID         id.DonorID      `json:"donor_id"`
	BloodBankID     *id.BloodBankID `json:"blood_bank_id,omitempty"`
	DonationDate    time.Time       `json:"donation_date"`
	BloodGroup      id.BloodGroup   `json:"blood_group"`
	UnitsDonated    float64         `json:"units_donated"`
	HemoglobinLevel *float64        `json:"hemoglobin_level,omitempty"`
	BloodPressure   string          `json:"blood_pressure,omitempty"`
	Temperature     *float64        `json:"temperature,omitempty"`
	Status          DonationStatus  `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	RelatedRequest  *id.RequestID   `json:"related_request,omitempty"`
	CollectedBy     *id.UserID      `json:"collected_by,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
