// Package policy decides who may see and move a blood request. It is pure
// and holds no state.
package policy

import (
	dirmodels "bloodlink/internal/directory/models"
	"bloodlink/internal/request/models"
	id "bloodlink/pkg/domain"
)

// CanView is the read filter applied to both list and detail reads.
func CanView(actor *dirmodels.Actor, req *models.BloodRequest) bool {
	if actor == nil || req == nil {
		return false
	}
	switch actor.Role {
	case id.RoleAdmin:
		return true
	case id.RoleDonor:
		switch req.Status {
		case models.StatusPending:
			return true
		case models.StatusApproved, models.StatusCancelled, models.StatusFulfilled:
			return isUser(req.ApprovedBy, actor.UserID)
		}
		return false
	default:
		return req.RequestedBy == actor.UserID
	}
}

// CanTransition applies the role table for target to requests the actor can
// view. Staff act only on requests they created, so every request an actor
// may move is also one it can read back.
func CanTransition(actor *dirmodels.Actor, req *models.BloodRequest, target models.Target) bool {
	if !CanView(actor, req) {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if target.IsOther() {
		return false
	}

	requester := req.RequestedBy == actor.UserID
	approver := isUser(req.ApprovedBy, actor.UserID)
	staff := actor.Role == id.RoleHospital || actor.Role == id.RoleBloodBank

	switch target.Status() {
	case models.StatusApproved:
		return staff || actor.Role == id.RoleDonor
	case models.StatusRejected:
		return staff
	case models.StatusCancelled:
		return requester || approver
	case models.StatusFulfilled:
		return staff || (actor.Role == id.RoleDonor && approver)
	case models.StatusPending:
		return requester
	}
	return false
}

func isUser(ref *id.UserID, userID id.UserID) bool {
	return ref != nil && *ref == userID
}
