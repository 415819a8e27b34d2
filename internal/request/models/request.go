package models

import (
	"strings"
	"time"

	"bloodlink/internal/geo"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

type Urgency string

const (
	UrgencyRoutine   Urgency = "ROUTINE"
	UrgencyUrgent    Urgency = "URGENT"
	UrgencyEmergency Urgency = "EMERGENCY"
)

func ParseUrgency(s string) (Urgency, error) {
	switch u := Urgency(s); u {
	case "":
		return UrgencyRoutine, nil
	case UrgencyRoutine, UrgencyUrgent, UrgencyEmergency:
		return u, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid urgency")
}

type RequesterType string

const (
	RequesterHospital RequesterType = "HOSPITAL"
	RequesterReceiver RequesterType = "RECEIVER"
)

const MaxPatientAge = 150

// BloodRequest is a solicitation for blood units for one patient. Requests
// are never deleted.
type BloodRequest struct {
	ID                id.RequestID    `json:"id"`
	Number            int64           `json:"number"`
	RequesterType     RequesterType   `json:"requester_type"`
	RequestedBy       id.UserID       `json:"requested_by"`
	PatientName       string          `json:"patient_name"`
	PatientAge        int             `json:"patient_age"`
	BloodGroup        id.BloodGroup   `json:"blood_group"`
	UnitsRequired     int             `json:"units_required"`
	Reason            string          `json:"reason"`
	Urgency           Urgency         `json:"urgency"`
	RequiredByDate    time.Time       `json:"required_by_date"`
	HospitalID        *id.HospitalID  `json:"hospital_id,omitempty"`
	HospitalName      string          `json:"hospital_name,omitempty"`
	AssignedBloodBank *id.BloodBankID `json:"assigned_blood_bank,omitempty"`
	Location          geo.Location    `json:"location"`
	Status            Status          `json:"status"`
	ApprovedBy        *id.UserID      `json:"approved_by,omitempty"`
	RejectedBy        *id.UserID      `json:"rejected_by,omitempty"`
	CancelledBy       *id.UserID      `json:"cancelled_by,omitempty"`
	FulfilledBy       *id.UserID      `json:"fulfilled_by,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// IsOverdue reports a pending request whose deadline has passed.
func (r *BloodRequest) IsOverdue(now time.Time) bool {
	return r.Status == StatusPending && now.After(r.RequiredByDate)
}

func (r *BloodRequest) IsUrgent() bool {
	return r.Urgency == UrgencyUrgent || r.Urgency == UrgencyEmergency
}

// ClearActors drops every terminal actor reference.
func (r *BloodRequest) ClearActors() {
	r.ApprovedBy = nil
	r.RejectedBy = nil
	r.CancelledBy = nil
	r.FulfilledBy = nil
}

// CreateInput is what a requester submits.
type CreateInput struct {
	PatientName    string         `json:"patient_name"`
	PatientAge     int            `json:"patient_age"`
	BloodGroup     string         `json:"blood_group"`
	UnitsRequired  int            `json:"units_required"`
	Reason         string         `json:"reason"`
	Urgency        string         `json:"urgency"`
	RequiredByDate time.Time      `json:"required_by_date"`
	HospitalID     *id.HospitalID `json:"hospital_id,omitempty"`
	HospitalName   string         `json:"hospital_name,omitempty"`
	Location       *geo.Location  `json:"location,omitempty"`
}

// Validate checks the submitted fields and returns the parsed group and
// urgency.
func (in *CreateInput) Validate() (id.BloodGroup, Urgency, error) {
	in.PatientName = strings.TrimSpace(in.PatientName)
	in.HospitalName = strings.TrimSpace(in.HospitalName)
	if in.PatientName == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, "patient name is required")
	}
	if in.PatientAge < 0 || in.PatientAge > MaxPatientAge {
		return "", "", dErrors.New(dErrors.CodeValidation, "patient age must be between 0 and 150")
	}
	group, err := id.ParseBloodGroup(in.BloodGroup)
	if err != nil {
		return "", "", dErrors.New(dErrors.CodeValidation, "invalid blood group")
	}
	if in.UnitsRequired < 1 {
		return "", "", dErrors.New(dErrors.CodeValidation, "units required must be at least 1")
	}
	urgency, err := ParseUrgency(in.Urgency)
	if err != nil {
		return "", "", err
	}
	if in.RequiredByDate.IsZero() {
		return "", "", dErrors.New(dErrors.CodeValidation, "required by date is required")
	}
	hasHospital := in.HospitalID != nil && !in.HospitalID.IsNil()
	if hasHospital == (in.HospitalName != "") {
		return "", "", dErrors.New(dErrors.CodeValidation, "provide either a registered hospital or a hospital name")
	}
	if in.Location != nil {
		if err := in.Location.Validate(); err != nil {
			return "", "", err
		}
	}
	return group, urgency, nil
}

// ListFilter narrows a request listing. Nil fields do not filter.
type ListFilter struct {
	// RequestedBy keeps only requests created by this user.
	RequestedBy *id.UserID
	// DonorView keeps PENDING requests plus APPROVED, CANCELLED and FULFILLED
	// requests approved by this user.
	DonorView *id.UserID
	Status    *Status
	Limit     int
}

// Matches applies the filter to one request.
func (f ListFilter) Matches(r *BloodRequest) bool {
	if f.RequestedBy != nil && r.RequestedBy != *f.RequestedBy {
		return false
	}
	if f.DonorView != nil {
		switch r.Status {
		case StatusPending:
		case StatusApproved, StatusCancelled, StatusFulfilled:
			if r.ApprovedBy == nil || *r.ApprovedBy != *f.DonorView {
				return false
			}
		default:
			return false
		}
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	return true
}

// Detail is a request together with its linked donation record, if any.
type Detail struct {
	Request  *BloodRequest   `json:"request"`
	Donation *DonationRecord `json:"donation,omitempty"`
}
