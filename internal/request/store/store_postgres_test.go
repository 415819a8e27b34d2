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

	"bloodlink/internal/request/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

var requestCols = []string{
	"id", "number", "requester_type", "requested_by", "patient_name", "patient_age", "blood_group",
	"units_required", "reason", "urgency", "required_by_date", "hospital_id", "hospital_name", "assigned_blood_bank_id",
	"latitude", "longitude", "status", "approved_by", "rejected_by", "cancelled_by", "fulfilled_by", "approved_at",
	"rejection_reason", "created_at", "updated_at", "version",
}

func TestPostgresRequestStore_FindByIDScansNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgresRequestStore(db)

	reqID := id.RequestID(uuid.New())
	requester := uuid.New()
	approver := uuid.New()
	now := time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM blood_requests WHERE id = \$1`).
		WithArgs(reqID).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(
			reqID.String(), int64(7), "RECEIVER", requester.String(), "Karim", 30, "O-",
			2, "accident", "URGENT", now, nil, "Dhaka Medical", nil,
			23.8, 90.4, "APPROVED", approver.String(), nil, nil, nil, now,
			nil, now, now, 2,
		))

	r, err := s.FindByID(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), r.Number)
	assert.Equal(t, models.StatusApproved, r.Status)
	assert.Nil(t, r.HospitalID)
	assert.Equal(t, "Dhaka Medical", r.HospitalName)
	require.NotNil(t, r.ApprovedBy)
	assert.Equal(t, id.UserID(approver), *r.ApprovedBy)
	assert.Nil(t, r.RejectedBy)
	require.NotNil(t, r.ApprovedAt)
	assert.Equal(t, 2, r.Version)
	assert.True(t, r.Location.Known())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRequestStore_FindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM blood_requests WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

	_, err = NewPostgresRequestStore(db).FindByID(context.Background(), id.RequestID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresRequestStore_UpdateVersionMismatchIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgresRequestStore(db)

	now := time.Now().UTC()
	r := &models.BloodRequest{ID: id.RequestID(uuid.New()), RequestedBy: id.UserID(uuid.New()), Status: models.StatusApproved, UpdatedAt: now}

	mock.ExpectQuery(`UPDATE blood_requests SET .* WHERE id = \$1 AND version = \$2`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM blood_requests WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(
			r.ID.String(), int64(1), "RECEIVER", r.RequestedBy.String(), "Karim", 30, "O-",
			1, "", "ROUTINE", now, nil, "Clinic", nil,
			nil, nil, "APPROVED", nil, nil, nil, nil, nil,
			nil, now, now, 5,
		))

	err = s.Update(context.Background(), r, 3)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRequestStore_UpdateBumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgresRequestStore(db)

	r := &models.BloodRequest{ID: id.RequestID(uuid.New()), Status: models.StatusPending, UpdatedAt: time.Now().UTC()}
	mock.ExpectQuery(`UPDATE blood_requests SET .* version = version \+ 1 WHERE id = \$1 AND version = \$2 RETURNING version`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))

	require.NoError(t, s.Update(context.Background(), r, 3))
	assert.Equal(t, 4, r.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRequestStore_ListBuildsDonorFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgresRequestStore(db)

	donorUser := id.UserID(uuid.New())
	mock.ExpectQuery(`WHERE \(status = 'PENDING' OR \(status IN \('APPROVED', 'CANCELLED', 'FULFILLED'\) AND approved_by = \$1\)\) ORDER BY created_at DESC, number DESC LIMIT \$2`).
		WithArgs(donorUser, 25).
		WillReturnRows(sqlmock.NewRows(requestCols))

	out, err := s.List(context.Background(), models.ListFilter{DonorView: &donorUser, Limit: 25})
	require.NoError(t, err)
	assert.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDonationStore_CreateConflictOnSecondRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgresDonationStore(db)

	reqID := id.RequestID(uuid.New())
	rec := &models.DonationRecord{ID: id.DonationID(uuid.New()), DonorID: id.DonorID(uuid.New()), RelatedRequest: &reqID, Status: models.DonationScheduled}

	mock.ExpectQuery(`INSERT INTO donation_records .* ON CONFLICT \(related_request_id\) DO NOTHING RETURNING number`).
		WillReturnRows(sqlmock.NewRows([]string{"number"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO donation_records`).
		WillReturnRows(sqlmock.NewRows([]string{"number"}))

	require.NoError(t, s.Create(context.Background(), rec))
	assert.Equal(t, int64(1), rec.Number)
	assert.ErrorIs(t, s.Create(context.Background(), rec), sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDonationStore_UpdateMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE donation_records SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresDonationStore(db).Update(context.Background(), &models.DonationRecord{ID: id.DonationID(uuid.New())})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
