package domain

import dErrors "bloodlink/pkg/domain-errors"

// Role is the actor's platform role.
// Invariant: the value must be one of the five supported roles.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleDonor     Role = "DONOR"
	RoleReceiver  Role = "RECEIVER"
	RoleHospital  Role = "HOSPITAL"
	RoleBloodBank Role = "BLOOD_BANK"
)

var validRoles = map[Role]bool{
	RoleAdmin:     true,
	RoleDonor:     true,
	RoleReceiver:  true,
	RoleHospital:  true,
	RoleBloodBank: true,
}

// ParseRole constructs a Role from external input such as token claims.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}
