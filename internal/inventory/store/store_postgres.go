package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

// PostgresStore persists blood inventory rows. Tiers are derived in models
// and never stored.
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

const inventoryColumns = `id, blood_bank_id, blood_group, units_available, units_reserved, minimum_threshold, critical_threshold, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventory(row rowScanner) (*models.Inventory, error) {
	var (
		inv   models.Inventory
		group string
	)
	if err := row.Scan(&inv.ID, &inv.BloodBankID, &group, &inv.UnitsAvailable, &inv.UnitsReserved,
		&inv.MinimumThreshold, &inv.CriticalThreshold, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.BloodGroup = id.BloodGroup(group)
	return &inv, nil
}

func (s *PostgresStore) Find(ctx context.Context, bankID id.BloodBankID, group id.BloodGroup) (*models.Inventory, error) {
	query := `SELECT ` + inventoryColumns + ` FROM blood_inventory WHERE blood_bank_id = $1 AND blood_group = $2`
	inv, err := scanInventory(s.execer(ctx).QueryRowContext(ctx, query, bankID, string(group)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find inventory: %w", err)
	}
	return inv, nil
}

func (s *PostgresStore) ListByBank(ctx context.Context, bankID id.BloodBankID) ([]*models.Inventory, error) {
	query := `SELECT ` + inventoryColumns + ` FROM blood_inventory WHERE blood_bank_id = $1 ORDER BY blood_group`
	rows, err := s.execer(ctx).QueryContext(ctx, query, bankID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	out := []*models.Inventory{}
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return out, nil
}

// Upsert writes the row keyed by bank and group. An existing row keeps its id.
func (s *PostgresStore) Upsert(ctx context.Context, inv *models.Inventory) error {
	query := `
		INSERT INTO blood_inventory (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (blood_bank_id, blood_group) DO UPDATE SET
			units_available = EXCLUDED.units_available,
			units_reserved = EXCLUDED.units_reserved,
			minimum_threshold = EXCLUDED.minimum_threshold,
			critical_threshold = EXCLUDED.critical_threshold,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	err := s.execer(ctx).QueryRowContext(ctx, query,
		inv.ID, inv.BloodBankID, string(inv.BloodGroup), inv.UnitsAvailable, inv.UnitsReserved,
		inv.MinimumThreshold, inv.CriticalThreshold, inv.UpdatedAt,
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("upsert inventory: %w", err)
	}
	return nil
}
