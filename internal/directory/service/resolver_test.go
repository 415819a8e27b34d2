package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/directory/models"
	"bloodlink/internal/directory/store"
	donormodels "bloodlink/internal/donor/models"
	donorstore "bloodlink/internal/donor/store"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

func TestResolveActorAttachesOwnedProfiles(t *testing.T) {
	ctx := context.Background()
	dir := store.NewInMemoryStore()
	donors := donorstore.NewInMemoryStore()

	userID := id.UserID(uuid.New())
	donor := &donormodels.Profile{ID: id.DonorID(uuid.New()), UserID: userID, BloodGroup: id.BloodGroupAPos}
	require.NoError(t, donors.Save(ctx, donor))
	bank := &models.BloodBank{ID: id.BloodBankID(uuid.New()), UserID: id.UserID(uuid.New()), Name: "Central"}
	require.NoError(t, dir.SaveBloodBank(ctx, bank))

	actor, err := NewResolver(dir, donors).ResolveActor(ctx, userID, id.RoleDonor)
	require.NoError(t, err)
	require.NotNil(t, actor.DonorProfile)
	assert.Equal(t, donor.ID, *actor.DonorProfile)
	assert.Nil(t, actor.HospitalProfile)
	assert.Nil(t, actor.BloodBankProfile)
	assert.Nil(t, actor.ReceiverProfile)

	bankActor, err := NewResolver(dir, donors).ResolveActor(ctx, bank.UserID, id.RoleBloodBank)
	require.NoError(t, err)
	assert.True(t, bankActor.ManagesBank(bank.ID))
	assert.False(t, bankActor.ManagesBank(id.BloodBankID(uuid.New())))
}

type brokenDonors struct{}

func (brokenDonors) FindByUserID(context.Context, id.UserID) (*donormodels.Profile, error) {
	return nil, errors.New("timeout")
}

func TestResolveActorStoreFailure(t *testing.T) {
	_, err := NewResolver(store.NewInMemoryStore(), brokenDonors{}).ResolveActor(context.Background(), id.UserID(uuid.New()), id.RoleAdmin)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = NewResolver(store.NewInMemoryStore(), brokenDonors{}).ResolveActor(context.Background(), id.UserID{}, id.RoleAdmin)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
