// Package models holds the nearest-entity ranking types and the pure ranking
// functions over them.
package models

import (
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/geo"
	id "bloodlink/pkg/domain"
)

// EntityType tags a ranked candidate. The values are part of the API.
type EntityType string

const (
	EntityDonor     EntityType = "Donor"
	EntityHospital  EntityType = "Hospital"
	EntityBloodBank EntityType = "Blood Bank"
)

// order is the tie-break position of each type in the combined list.
func (t EntityType) order() int {
	switch t {
	case EntityDonor:
		return 0
	case EntityHospital:
		return 1
	default:
		return 2
	}
}

// Candidate is one registered entity that may be ranked. UserID is the owning
// account, absent for blood banks.
type Candidate struct {
	Type       EntityType    `json:"type"`
	ID         uuid.UUID     `json:"id"`
	UserID     *id.UserID    `json:"user_id,omitempty"`
	Name       string        `json:"name"`
	BloodGroup id.BloodGroup `json:"blood_group,omitempty"`
	Location   geo.Location  `json:"location"`
}

// Ranked is a candidate with a known distance to the receiver.
type Ranked struct {
	Type       EntityType    `json:"type"`
	ID         uuid.UUID     `json:"id"`
	UserID     *id.UserID    `json:"-"`
	Name       string        `json:"name"`
	BloodGroup id.BloodGroup `json:"blood_group,omitempty"`
	DistanceKm float64       `json:"distance_km"`
}

// Nearest holds the closest candidate per type. Any may be nil.
type Nearest struct {
	Donor     *Ranked `json:"donor"`
	Hospital  *Ranked `json:"hospital"`
	BloodBank *Ranked `json:"blood_bank"`
}

// Result is what a receiver sees from a nearby lookup.
type Result struct {
	Receiver      string       `json:"receiver"`
	Location      geo.Location `json:"location"`
	Nearby        []Ranked     `json:"nearby"`
	NearestByType Nearest      `json:"nearest_by_type"`
	// Skipped counts candidates left out for an unknown or malformed location.
	Skipped int `json:"skipped"`
}

// DistanceRecord is the write-once snapshot of one resolution. Donor and
// hospital are referenced by their owning accounts.
type DistanceRecord struct {
	ID                    id.DistanceRecordID `json:"id"`
	ReceiverID            id.UserID           `json:"receiver_id"`
	DonorUserID           *id.UserID          `json:"donor_user_id,omitempty"`
	HospitalUserID        *id.UserID          `json:"hospital_user_id,omitempty"`
	BloodBankID           *id.BloodBankID     `json:"blood_bank_id,omitempty"`
	ReceiverToDonorKm     *float64            `json:"receiver_to_donor_km,omitempty"`
	ReceiverToHospitalKm  *float64            `json:"receiver_to_hospital_km,omitempty"`
	ReceiverToBloodBankKm *float64            `json:"receiver_to_bloodbank_km,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
}

// NewDistanceRecord snapshots nearest for receiverID.
func NewDistanceRecord(receiverID id.UserID, nearest Nearest, now time.Time) *DistanceRecord {
	rec := &DistanceRecord{
		ID:         id.DistanceRecordID(uuid.New()),
		ReceiverID: receiverID,
		CreatedAt:  now,
	}
	if d := nearest.Donor; d != nil {
		rec.DonorUserID = d.UserID
		rec.ReceiverToDonorKm = distancePtr(d)
	}
	if h := nearest.Hospital; h != nil {
		rec.HospitalUserID = h.UserID
		rec.ReceiverToHospitalKm = distancePtr(h)
	}
	if b := nearest.BloodBank; b != nil {
		bankID := id.BloodBankID(b.ID)
		rec.BloodBankID = &bankID
		rec.ReceiverToBloodBankKm = distancePtr(b)
	}
	return rec
}

func distancePtr(r *Ranked) *float64 {
	d := r.DistanceKm
	return &d
}
