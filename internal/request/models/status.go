package models

import (
	"strings"

	dErrors "bloodlink/pkg/domain-errors"
)

// Status is the lifecycle state stored on a request. Values round-trip
// unchanged to storage and the wire.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusFulfilled Status = "FULFILLED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
)

const maxStatusLength = 20

func (s Status) String() string { return string(s) }

// IsKnown reports whether s is one of the five lifecycle states.
func (s Status) IsKnown() bool {
	switch s {
	case StatusPending, StatusApproved, StatusFulfilled, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Target is a requested transition. It is either a known Status or Other,
// carrying a raw value that is written as-is.
type Target struct {
	status Status
	other  bool
}

// ParseTarget classifies raw. Empty or oversize values are rejected; any
// other string outside the known set becomes an Other target.
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, dErrors.New(dErrors.CodeValidation, "status is required")
	}
	if len(raw) > maxStatusLength {
		return Target{}, dErrors.New(dErrors.CodeValidation, "status is too long")
	}
	s := Status(raw)
	return Target{status: s, other: !s.IsKnown()}, nil
}

// TargetOf wraps a known status.
func TargetOf(s Status) Target {
	return Target{status: s, other: !s.IsKnown()}
}

func (t Target) Status() Status { return t.status }

// IsOther reports whether the target is a raw overwrite outside the lifecycle.
func (t Target) IsOther() bool { return t.other }

func (t Target) String() string { return string(t.status) }

// allowedFrom lists, per known target, the states it may be entered from.
var allowedFrom = map[Status][]Status{
	StatusApproved:  {StatusPending},
	StatusFulfilled: {StatusApproved},
	StatusCancelled: {StatusPending, StatusApproved},
	StatusRejected:  {StatusPending},
	StatusPending:   {StatusApproved, StatusFulfilled, StatusCancelled, StatusRejected},
}

// CheckTransition validates moving from current to t. Other targets are
// accepted from any state; a request left in an unknown state can only be
// reset or overwritten again.
func CheckTransition(current Status, t Target) error {
	if t.other {
		return nil
	}
	if !current.IsKnown() && t.status == StatusPending {
		return nil
	}
	for _, from := range allowedFrom[t.status] {
		if from == current {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeValidation, "cannot move request from "+string(current)+" to "+string(t.status))
}
