package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bloodlink/internal/geo"
	"bloodlink/internal/request/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// PostgresRequestStore persists blood requests. Writes are guarded by the
// version column.
type PostgresRequestStore struct {
	db *sql.DB
}

func NewPostgresRequestStore(db *sql.DB) *PostgresRequestStore {
	return &PostgresRequestStore{db: db}
}

const requestColumns = `id, number, requester_type, requested_by, patient_name, patient_age, blood_group,
	units_required, reason, urgency, required_by_date, hospital_id, hospital_name, assigned_blood_bank_id,
	latitude, longitude, status, approved_by, rejected_by, cancelled_by, fulfilled_by, approved_at,
	rejection_reason, created_at, updated_at, version`

func scanRequest(row rowScanner) (*models.BloodRequest, error) {
	var (
		r                             models.BloodRequest
		requesterType, group, urgency string
		status                        string
		hospitalID, bankID            uuid.NullUUID
		approvedBy, rejectedBy        uuid.NullUUID
		cancelledBy, fulfilledBy      uuid.NullUUID
		hospitalName, rejectionReason sql.NullString
		lat, lon                      sql.NullFloat64
		approvedAt                    sql.NullTime
	)
	err := row.Scan(&r.ID, &r.Number, &requesterType, &r.RequestedBy, &r.PatientName, &r.PatientAge, &group,
		&r.UnitsRequired, &r.Reason, &urgency, &r.RequiredByDate, &hospitalID, &hospitalName, &bankID,
		&lat, &lon, &status, &approvedBy, &rejectedBy, &cancelledBy, &fulfilledBy, &approvedAt,
		&rejectionReason, &r.CreatedAt, &r.UpdatedAt, &r.Version)
	if err != nil {
		return nil, err
	}
	r.RequesterType = models.RequesterType(requesterType)
	r.BloodGroup = id.BloodGroup(group)
	r.Urgency = models.Urgency(urgency)
	r.Status = models.Status(status)
	r.HospitalID = fromNullUUID[id.HospitalID](hospitalID)
	r.HospitalName = hospitalName.String
	r.AssignedBloodBank = fromNullUUID[id.BloodBankID](bankID)
	r.Location = geo.FromNull(lat, lon)
	r.ApprovedBy = fromNullUUID[id.UserID](approvedBy)
	r.RejectedBy = fromNullUUID[id.UserID](rejectedBy)
	r.CancelledBy = fromNullUUID[id.UserID](cancelledBy)
	r.FulfilledBy = fromNullUUID[id.UserID](fulfilledBy)
	r.ApprovedAt = fromNullTime(approvedAt)
	r.RejectionReason = rejectionReason.String
	return &r, nil
}

// Create inserts the request and fills its sequence number.
func (s *PostgresRequestStore) Create(ctx context.Context, r *models.BloodRequest) error {
	query := `
		INSERT INTO blood_requests (
			id, requester_type, requested_by, patient_name, patient_age, blood_group,
			units_required, reason, urgency, required_by_date, hospital_id, hospital_name,
			assigned_blood_bank_id, latitude, longitude, status, rejection_reason,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING number
	`
	err := execer(ctx, s.db).QueryRowContext(ctx, query,
		r.ID, string(r.RequesterType), r.RequestedBy, r.PatientName, r.PatientAge, string(r.BloodGroup),
		r.UnitsRequired, r.Reason, string(r.Urgency), r.RequiredByDate, nullUUID(r.HospitalID), r.HospitalName,
		nullUUID(r.AssignedBloodBank), r.Location.NullLatitude(), r.Location.NullLongitude(), string(r.Status), r.RejectionReason,
		r.CreatedAt, r.UpdatedAt, r.Version,
	).Scan(&r.Number)
	if err != nil {
		return fmt.Errorf("create blood request: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = $1`
	r, err := scanRequest(execer(ctx, s.db).QueryRowContext(ctx, query, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find blood request: %w", err)
	}
	return r, nil
}

// List returns matching requests, newest first.
func (s *PostgresRequestStore) List(ctx context.Context, filter models.ListFilter) ([]*models.BloodRequest, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.RequestedBy != nil {
		where = append(where, "requested_by = "+arg(*filter.RequestedBy))
	}
	if filter.DonorView != nil {
		where = append(where, "(status = 'PENDING' OR (status IN ('APPROVED', 'CANCELLED', 'FULFILLED') AND approved_by = "+arg(*filter.DonorView)+"))")
	}
	if filter.Status != nil {
		where = append(where, "status = "+arg(string(*filter.Status)))
	}

	query := `SELECT ` + requestColumns + ` FROM blood_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, number DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}

	rows, err := execer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood requests: %w", err)
	}
	defer rows.Close()

	out := []*models.BloodRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood requests: %w", err)
	}
	return out, nil
}

// Update writes the mutable fields when the stored version still equals
// expectedVersion. A lost race returns sentinel.ErrConflict.
func (s *PostgresRequestStore) Update(ctx context.Context, r *models.BloodRequest, expectedVersion int) error {
	query := `
		UPDATE blood_requests SET
			assigned_blood_bank_id = $3,
			latitude = $4,
			longitude = $5,
			status = $6,
			approved_by = $7,
			rejected_by = $8,
			cancelled_by = $9,
			fulfilled_by = $10,
			approved_at = $11,
			rejection_reason = $12,
			updated_at = $13,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`
	err := execer(ctx, s.db).QueryRowContext(ctx, query,
		r.ID, expectedVersion,
		nullUUID(r.AssignedBloodBank), r.Location.NullLatitude(), r.Location.NullLongitude(), string(r.Status),
		nullUUID(r.ApprovedBy), nullUUID(r.RejectedBy), nullUUID(r.CancelledBy), nullUUID(r.FulfilledBy),
		nullTime(r.ApprovedAt), r.RejectionReason, r.UpdatedAt,
	).Scan(&r.Version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, findErr := s.FindByID(ctx, r.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update blood request: %w", err)
	}
	return nil
}

// PostgresDonationStore persists donation records. The related_request
// column is unique, so a request links to at most one record.
type PostgresDonationStore struct {
	db *sql.DB
}

func NewPostgresDonationStore(db *sql.DB) *PostgresDonationStore {
	return &PostgresDonationStore{db: db}
}

const donationColumns = `id, number, donor_id, blood_bank_id, donation_date, blood_group, units_donated,
	hemoglobin_level, blood_pressure, temperature, status, rejection_reason, related_request_id,
	collected_by, notes, created_at, updated_at`

func scanDonation(row rowScanner) (*models.DonationRecord, error) {
	var (
		d                models.DonationRecord
		group, status    string
		bankID, related  uuid.NullUUID
		collectedBy      uuid.NullUUID
		hemoglobin, temp sql.NullFloat64
		pressure, reason sql.NullString
		notes            sql.NullString
	)
	err := row.Scan(&d.ID, &d.Number, &d.DonorID, &bankID, &d.DonationDate, &group, &d.UnitsDonated,
		&hemoglobin, &pressure, &temp, &status, &reason, &related,
		&collectedBy, &notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.BloodGroup = id.BloodGroup(group)
	d.Status = models.DonationStatus(status)
	d.BloodBankID = fromNullUUID[id.BloodBankID](bankID)
	d.RelatedRequest = fromNullUUID[id.RequestID](related)
	d.CollectedBy = fromNullUUID[id.UserID](collectedBy)
	d.HemoglobinLevel = fromNullFloat(hemoglobin)
	d.Temperature = fromNullFloat(temp)
	d.BloodPressure = pressure.String
	d.RejectionReason = reason.String
	d.Notes = notes.String
	return &d, nil
}

func (s *PostgresDonationStore) FindByRequest(ctx context.Context, requestID id.RequestID) (*models.DonationRecord, error) {
	query := `SELECT ` + donationColumns + ` FROM donation_records WHERE related_request_id = $1`
	d, err := scanDonation(execer(ctx, s.db).QueryRowContext(ctx, query, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find donation record: %w", err)
	}
	return d, nil
}

func (s *PostgresDonationStore) Create(ctx context.Context, d *models.DonationRecord) error {
	query := `
		INSERT INTO donation_records (
			id, donor_id, blood_bank_id, donation_date, blood_group, units_donated,
			hemoglobin_level, blood_pressure, temperature, status, rejection_reason,
			related_request_id, collected_by, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (related_request_id) DO NOTHING
		RETURNING number
	`
	err := execer(ctx, s.db).QueryRowContext(ctx, query,
		d.ID, d.DonorID, nullUUID(d.BloodBankID), d.DonationDate, string(d.BloodGroup), d.UnitsDonated,
		nullFloat(d.HemoglobinLevel), d.BloodPressure, nullFloat(d.Temperature), string(d.Status), d.RejectionReason,
		nullUUID(d.RelatedRequest), nullUUID(d.CollectedBy), d.Notes, d.CreatedAt, d.UpdatedAt,
	).Scan(&d.Number)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create donation record: %w", err)
	}
	return nil
}

func (s *PostgresDonationStore) Update(ctx context.Context, d *models.DonationRecord) error {
	query := `
		UPDATE donation_records SET
			donor_id = $2,
			blood_bank_id = $3,
			status = $4,
			rejection_reason = $5,
			collected_by = $6,
			notes = $7,
			updated_at = $8
		WHERE id = $1
	`
	res, err := execer(ctx, s.db).ExecContext(ctx, query,
		d.ID, d.DonorID, nullUUID(d.BloodBankID), string(d.Status), d.RejectionReason,
		nullUUID(d.CollectedBy), d.Notes, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update donation record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donation record: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresDonationStore) ListByRequest(ctx context.Context, requestID id.RequestID) ([]*models.DonationRecord, error) {
	query := `SELECT ` + donationColumns + ` FROM donation_records WHERE related_request_id = $1 ORDER BY number`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list donation records: %w", err)
	}
	defer rows.Close()

	out := []*models.DonationRecord{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation record: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donation records: %w", err)
	}
	return out, nil
}
