package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/internal/nearby/models"
	id "bloodlink/pkg/domain"
	txcontext "bloodlink/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresStore persists distance records to the distance_records table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.DistanceRecord) error {
	query := `
		INSERT INTO distance_records (id, receiver_id, donor_user_id, hospital_user_id, blood_bank_id,
			receiver_to_donor_km, receiver_to_hospital_km, receiver_to_bloodbank_km, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(rec.ID), uuid.UUID(rec.ReceiverID),
		nullUUID(rec.DonorUserID), nullUUID(rec.HospitalUserID), nullUUID(rec.BloodBankID),
		nullFloat(rec.ReceiverToDonorKm), nullFloat(rec.ReceiverToHospitalKm), nullFloat(rec.ReceiverToBloodBankKm),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert distance record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByReceiver(ctx context.Context, receiverID id.UserID, limit int) ([]*models.DistanceRecord, error) {
	query := `
		SELECT id, receiver_id, donor_user_id, hospital_user_id, blood_bank_id,
			receiver_to_donor_km, receiver_to_hospital_km, receiver_to_bloodbank_km, created_at
		FROM distance_records
		WHERE receiver_id = $1
		ORDER BY created_at DESC
	`
	args := []any{uuid.UUID(receiverID)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list distance records: %w", err)
	}
	defer rows.Close()

	out := []*models.DistanceRecord{}
	for rows.Next() {
		var (
			rec                         models.DistanceRecord
			recID, receiver             uuid.UUID
			donor, hospital, bank       uuid.NullUUID
			toDonor, toHospital, toBank sql.NullFloat64
		)
		if err := rows.Scan(&recID, &receiver, &donor, &hospital, &bank,
			&toDonor, &toHospital, &toBank, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan distance record: %w", err)
		}
		rec.ID = id.DistanceRecordID(recID)
		rec.ReceiverID = id.UserID(receiver)
		rec.DonorUserID = fromNullUUID[id.UserID](donor)
		rec.HospitalUserID = fromNullUUID[id.UserID](hospital)
		rec.BloodBankID = fromNullUUID[id.BloodBankID](bank)
		rec.ReceiverToDonorKm = fromNullFloat(toDonor)
		rec.ReceiverToHospitalKm = fromNullFloat(toHospital)
		rec.ReceiverToBloodBankKm = fromNullFloat(toBank)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distance records: %w", err)
	}
	return out, nil
}
