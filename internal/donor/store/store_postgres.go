package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bloodlink/internal/donor/models"
	"bloodlink/internal/geo"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

// PostgresStore persists donor profiles in PostgreSQL.
// This store is pure I/O; eligibility rules belong in models.
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

const profileColumns = `id, user_id, name, blood_group, last_donation_date, total_donations, donation_points, is_available, latitude, longitude`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p        models.Profile
		group    string
		lastDate sql.NullTime
		lat, lon sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &group, &lastDate, &p.TotalDonations, &p.DonationPoints, &p.IsAvailable, &lat, &lon); err != nil {
		return nil, err
	}
	p.BloodGroup = id.BloodGroup(group)
	if lastDate.Valid {
		d := models.DateOf(lastDate.Time)
		p.LastDonationDate = &d
	}
	p.Location = geo.FromNull(lat, lon)
	return &p, nil
}

func (s *PostgresStore) Save(ctx context.Context, p *models.Profile) error {
	var lastDate sql.NullTime
	if p.LastDonationDate != nil {
		lastDate = sql.NullTime{Time: *p.LastDonationDate, Valid: true}
	}
	query := `
		INSERT INTO donor_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			blood_group = EXCLUDED.blood_group,
			is_available = EXCLUDED.is_available,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		p.ID, p.UserID, p.Name, string(p.BloodGroup), lastDate,
		p.TotalDonations, p.DonationPoints, p.IsAvailable,
		p.Location.NullLatitude(), p.Location.NullLongitude(),
	)
	if err != nil {
		return fmt.Errorf("save donor profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, donorID id.DonorID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM donor_profiles WHERE id = $1`
	p, err := scanProfile(s.execer(ctx).QueryRowContext(ctx, query, donorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find donor profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByUserID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM donor_profiles WHERE user_id = $1`
	p, err := scanProfile(s.execer(ctx).QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find donor profile by user: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM donor_profiles ORDER BY created_at, id`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list donor profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donor profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donor profiles: %w", err)
	}
	return out, nil
}

// RecordDonation applies the donation credit in a single statement so
// concurrent credits to the same donor are never lost.
func (s *PostgresStore) RecordDonation(ctx context.Context, donorID id.DonorID, day time.Time) (*models.Profile, error) {
	query := `
		UPDATE donor_profiles
		SET total_donations = total_donations + 1,
			donation_points = donation_points + 1,
			last_donation_date = $2
		WHERE id = $1
		RETURNING ` + profileColumns
	p, err := scanProfile(s.execer(ctx).QueryRowContext(ctx, query, donorID, models.DateOf(day)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("record donation: %w", err)
	}
	return p, nil
}
