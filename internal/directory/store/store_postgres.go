package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bloodlink/internal/directory/models"
	"bloodlink/internal/geo"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

// PostgresStore reads and writes directory entities in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHospital(row rowScanner) (*models.Hospital, error) {
	var (
		h        models.Hospital
		lat, lon sql.NullFloat64
	)
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &lat, &lon); err != nil {
		return nil, err
	}
	h.Location = geo.FromNull(lat, lon)
	return &h, nil
}

func scanBloodBank(row rowScanner) (*models.BloodBank, error) {
	var (
		b        models.BloodBank
		lat, lon sql.NullFloat64
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &lat, &lon); err != nil {
		return nil, err
	}
	b.Location = geo.FromNull(lat, lon)
	return &b, nil
}

func scanReceiver(row rowScanner) (*models.Receiver, error) {
	var (
		r        models.Receiver
		lat, lon sql.NullFloat64
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Name, &lat, &lon); err != nil {
		return nil, err
	}
	r.Location = geo.FromNull(lat, lon)
	return &r, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *PostgresStore) SaveHospital(ctx context.Context, h *models.Hospital) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO hospitals (id, user_id, name, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
	`, h.ID, h.UserID, h.Name, h.Location.NullLatitude(), h.Location.NullLongitude())
	if err != nil {
		return fmt.Errorf("save hospital: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveBloodBank(ctx context.Context, b *models.BloodBank) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO blood_banks (id, user_id, name, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
	`, b.ID, b.UserID, b.Name, b.Location.NullLatitude(), b.Location.NullLongitude())
	if err != nil {
		return fmt.Errorf("save blood bank: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveReceiver(ctx context.Context, r *models.Receiver) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO receivers (id, user_id, name, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
	`, r.ID, r.UserID, r.Name, r.Location.NullLatitude(), r.Location.NullLongitude())
	if err != nil {
		return fmt.Errorf("save receiver: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindHospital(ctx context.Context, hospitalID id.HospitalID) (*models.Hospital, error) {
	h, err := scanHospital(s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, user_id, name, latitude, longitude FROM hospitals WHERE id = $1`, hospitalID))
	if err != nil {
		return nil, notFound(err, "find hospital")
	}
	return h, nil
}

func (s *PostgresStore) FindBloodBank(ctx context.Context, bankID id.BloodBankID) (*models.BloodBank, error) {
	b, err := scanBloodBank(s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, user_id, name, latitude, longitude FROM blood_banks WHERE id = $1`, bankID))
	if err != nil {
		return nil, notFound(err, "find blood bank")
	}
	return b, nil
}

func (s *PostgresStore) FindHospitalByUser(ctx context.Context, userID id.UserID) (*models.Hospital, error) {
	h, err := scanHospital(s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, user_id, name, latitude, longitude FROM hospitals WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err, "find hospital by user")
	}
	return h, nil
}

func (s *PostgresStore) FindBloodBankByUser(ctx context.Context, userID id.UserID) (*models.BloodBank, error) {
	b, err := scanBloodBank(s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, user_id, name, latitude, longitude FROM blood_banks WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err, "find blood bank by user")
	}
	return b, nil
}

func (s *PostgresStore) FindReceiverByUser(ctx context.Context, userID id.UserID) (*models.Receiver, error) {
	r, err := scanReceiver(s.execer(ctx).QueryRowContext(ctx,
		`SELECT id, user_id, name, latitude, longitude FROM receivers WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err, "find receiver by user")
	}
	return r, nil
}

func (s *PostgresStore) ListHospitals(ctx context.Context) ([]*models.Hospital, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id, user_id, name, latitude, longitude FROM hospitals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list hospitals: %w", err)
	}
	defer rows.Close()
	var out []*models.Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hospital: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListBloodBanks(ctx context.Context) ([]*models.BloodBank, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id, user_id, name, latitude, longitude FROM blood_banks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list blood banks: %w", err)
	}
	defer rows.Close()
	var out []*models.BloodBank
	for rows.Next() {
		b, err := scanBloodBank(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood bank: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
