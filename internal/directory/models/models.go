// Package models holds the registered entities the engine reads but never
// owns: hospitals, blood banks, receivers, and the resolved acting user.
package models

import (
	"bloodlink/internal/geo"
	id "bloodlink/pkg/domain"
)

type Hospital struct {
	ID       id.HospitalID `json:"id"`
	UserID   id.UserID     `json:"user_id"`
	Name     string        `json:"name"`
	Location geo.Location  `json:"location"`
}

type BloodBank struct {
	ID       id.BloodBankID `json:"id"`
	UserID   id.UserID      `json:"user_id"`
	Name     string         `json:"name"`
	Location geo.Location   `json:"location"`
}

type Receiver struct {
	ID       id.ReceiverID `json:"id"`
	UserID   id.UserID     `json:"user_id"`
	Name     string        `json:"name"`
	Location geo.Location  `json:"location"`
}

// Actor is the authenticated user with whatever profiles they own.
type Actor struct {
	UserID           id.UserID
	Role             id.Role
	DonorProfile     *id.DonorID
	HospitalProfile  *id.HospitalID
	BloodBankProfile *id.BloodBankID
	ReceiverProfile  *id.ReceiverID
}

func (a *Actor) IsAdmin() bool {
	return a.Role == id.RoleAdmin
}

// ManagesBank reports whether the actor is the blood bank's own account.
func (a *Actor) ManagesBank(bankID id.BloodBankID) bool {
	return a.Role == id.RoleBloodBank && a.BloodBankProfile != nil && *a.BloodBankProfile == bankID
}
