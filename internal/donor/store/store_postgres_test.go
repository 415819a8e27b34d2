package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

var profileCols = []string{"id", "user_id", "name", "blood_group", "last_donation_date", "total_donations", "donation_points", "is_available", "latitude", "longitude"}

func TestPostgresStore_RecordDonationIsSingleAtomicUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgres(db)

	donorID := id.DonorID(uuid.New())
	userID := uuid.New()
	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE donor_profiles\s+SET total_donations = total_donations \+ 1,\s+donation_points = donation_points \+ 1`).
		WithArgs(donorID, day).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(donorID.String(), userID.String(), "Sita Rai", "O+", day, 4, 4, true, 27.7, 85.3))

	p, err := s.RecordDonation(context.Background(), donorID, day.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, p.TotalDonations)
	assert.Equal(t, id.BloodGroupOPos, p.BloodGroup)
	require.NotNil(t, p.Location.Latitude)
	assert.InDelta(t, 27.7, *p.Location.Latitude, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgres(db)

	mock.ExpectQuery(`FROM donor_profiles WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

	_, err = s.FindByID(context.Background(), id.DonorID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByUserIDNullColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgres(db)

	donorID := uuid.New()
	userID := id.UserID(uuid.New())
	mock.ExpectQuery(`FROM donor_profiles WHERE user_id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(donorID.String(), userID.String(), "Hari", "AB-", nil, 0, 0, true, nil, nil))

	p, err := s.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, p.LastDonationDate)
	assert.False(t, p.Location.Known())
	require.NoError(t, mock.ExpectationsWereMet())
}
