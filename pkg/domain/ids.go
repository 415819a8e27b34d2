package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"

	dErrors "bloodlink/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so that a DonorID can never be passed
// where a UserID is expected.
type (
	UserID           uuid.UUID
	DonorID          uuid.UUID
	ReceiverID       uuid.UUID
	HospitalID       uuid.UUID
	BloodBankID      uuid.UUID
	RequestID        uuid.UUID
	DonationID       uuid.UUID
	DistanceRecordID uuid.UUID
	InventoryID      uuid.UUID
)

type uuidID interface {
	~[16]byte
}

func parseID[T uuidID](kind, s string) (T, error) {
	var zero T
	if s == "" {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return T(u), nil
}

func scanID[T uuidID](dst *T, src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return fmt.Errorf("scan id: %w", err)
	}
	*dst = T(u)
	return nil
}

func ParseUserID(s string) (UserID, error)         { return parseID[UserID]("user ID", s) }
func ParseDonorID(s string) (DonorID, error)       { return parseID[DonorID]("donor ID", s) }
func ParseReceiverID(s string) (ReceiverID, error) { return parseID[ReceiverID]("receiver ID", s) }
func ParseHospitalID(s string) (HospitalID, error) { return parseID[HospitalID]("hospital ID", s) }
func ParseBloodBankID(s string) (BloodBankID, error) {
	return parseID[BloodBankID]("blood bank ID", s)
}
func ParseRequestID(s string) (RequestID, error)   { return parseID[RequestID]("request ID", s) }
func ParseDonationID(s string) (DonationID, error) { return parseID[DonationID]("donation ID", s) }

func (id UserID) String() string           { return uuid.UUID(id).String() }
func (id DonorID) String() string          { return uuid.UUID(id).String() }
func (id ReceiverID) String() string       { return uuid.UUID(id).String() }
func (id HospitalID) String() string       { return uuid.UUID(id).String() }
func (id BloodBankID) String() string      { return uuid.UUID(id).String() }
func (id RequestID) String() string        { return uuid.UUID(id).String() }
func (id DonationID) String() string       { return uuid.UUID(id).String() }
func (id DistanceRecordID) String() string { return uuid.UUID(id).String() }
func (id InventoryID) String() string      { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id DonorID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ReceiverID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id HospitalID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BloodBankID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id InventoryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// JSON encodes IDs as their canonical string form.
func (id UserID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id DonorID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ReceiverID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id HospitalID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id BloodBankID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id DonationID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id DistanceRecordID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
func (id InventoryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) (err error) {
	*id, err = ParseUserID(string(b))
	return err
}

func (id *DonorID) UnmarshalText(b []byte) (err error) {
	*id, err = ParseDonorID(string(b))
	return err
}

func (id *ReceiverID) UnmarshalText(b []byte) (err error) {
	*id, err = ParseReceiverID(string(b))
	return err
}

func (id *HospitalID) UnmarshalText(b []byte) (err error) {
	*id, err = ParseHospitalID(string(b))
	return err
}

func (id *BloodBankID) UnmarshalText(b []byte) (err error) {
	*id, err = ParseBloodBankID(string(b))
	return err
}

func (id *RequestID) UnmarshalText(b []byte) (err error) {
	*id, err = ParseRequestID(string(b))
	return err
}

// database/sql support for the Postgres stores.
func (id UserID) Value() (driver.Value, error)           { return id.String(), nil }
func (id DonorID) Value() (driver.Value, error)          { return id.String(), nil }
func (id ReceiverID) Value() (driver.Value, error)       { return id.String(), nil }
func (id HospitalID) Value() (driver.Value, error)       { return id.String(), nil }
func (id BloodBankID) Value() (driver.Value, error)      { return id.String(), nil }
func (id RequestID) Value() (driver.Value, error)        { return id.String(), nil }
func (id DonationID) Value() (driver.Value, error)       { return id.String(), nil }
func (id DistanceRecordID) Value() (driver.Value, error) { return id.String(), nil }
func (id InventoryID) Value() (driver.Value, error)      { return id.String(), nil }

func (id *UserID) Scan(src any) error           { return scanID(id, src) }
func (id *DonorID) Scan(src any) error          { return scanID(id, src) }
func (id *ReceiverID) Scan(src any) error       { return scanID(id, src) }
func (id *HospitalID) Scan(src any) error       { return scanID(id, src) }
func (id *BloodBankID) Scan(src any) error      { return scanID(id, src) }
func (id *RequestID) Scan(src any) error        { return scanID(id, src) }
func (id *DonationID) Scan(src any) error       { return scanID(id, src) }
func (id *DistanceRecordID) Scan(src any) error { return scanID(id, src) }
func (id *InventoryID) Scan(src any) error      { return scanID(id, src) }
