package service

import (
	"context"
	"errors"

	"bloodlink/internal/directory/models"
	donormodels "bloodlink/internal/donor/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
)

// Directory is the read side of the directory store.
type Directory interface {
	FindHospitalByUser(ctx context.Context, userID id.UserID) (*models.Hospital, error)
	FindBloodBankByUser(ctx context.Context, userID id.UserID) (*models.BloodBank, error)
	FindReceiverByUser(ctx context.Context, userID id.UserID) (*models.Receiver, error)
}

// DonorLookup finds a donor profile by its owning user.
type DonorLookup interface {
	FindByUserID(ctx context.Context, userID id.UserID) (*donormodels.Profile, error)
}

// Resolver builds an Actor from an authenticated user id and role.
type Resolver struct {
	directory Directory
	donors    DonorLookup
}

func NewResolver(directory Directory, donors DonorLookup) *Resolver {
	return &Resolver{directory: directory, donors: donors}
}

// ResolveActor attaches every profile the user owns. Missing profiles are
// left nil; only store failures are errors.
func (r *Resolver) ResolveActor(ctx context.Context, userID id.UserID, role id.Role) (*models.Actor, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	actor := &models.Actor{UserID: userID, Role: role}

	donor, err := r.donors.FindByUserID(ctx, userID)
	if err := optional(err); err != nil {
		return nil, err
	}
	if donor != nil {
		actor.DonorProfile = &donor.ID
	}

	hospital, err := r.directory.FindHospitalByUser(ctx, userID)
	if err := optional(err); err != nil {
		return nil, err
	}
	if hospital != nil {
		actor.HospitalProfile = &hospital.ID
	}

	bank, err := r.directory.FindBloodBankByUser(ctx, userID)
	if err := optional(err); err != nil {
		return nil, err
	}
	if bank != nil {
		actor.BloodBankProfile = &bank.ID
	}

	receiver, err := r.directory.FindReceiverByUser(ctx, userID)
	if err := optional(err); err != nil {
		return nil, err
	}
	if receiver != nil {
		actor.ReceiverProfile = &receiver.ID
	}

	return actor, nil
}

func optional(err error) error {
	if err == nil || errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve actor profiles")
}
