package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bloodlink/internal/audit"
	dirmodels "bloodlink/internal/directory/models"
	"bloodlink/internal/inventory/models"
	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	auditevents "bloodlink/pkg/platform/audit"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Store is the inventory persistence port.
type Store interface {
	Find(ctx context.Context, bankID id.BloodBankID, group id.BloodGroup) (*models.Inventory, error)
	ListByBank(ctx context.Context, bankID id.BloodBankID) ([]*models.Inventory, error)
	Upsert(ctx context.Context, inv *models.Inventory) error
}

// ActivityRecorder records inventory changes.
type ActivityRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service classifies and maintains blood bank stock.
type Service struct {
	store    Store
	activity ActivityRecorder
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithActivityRecorder(recorder ActivityRecorder) Option {
	return func(s *Service) {
		s.activity = recorder
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, activity: audit.NewRecorder(nil), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClassifyInventory returns the bank's row for group with its tier.
func (s *Service) ClassifyInventory(ctx context.Context, bankID id.BloodBankID, group id.BloodGroup) (models.Row, error) {
	if !group.IsValid() {
		return models.Row{}, dErrors.New(dErrors.CodeValidation, "invalid blood group")
	}
	inv, err := s.store.Find(ctx, bankID, group)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Row{}, dErrors.New(dErrors.CodeNotFound, "inventory not found")
		}
		return models.Row{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load inventory")
	}
	return models.Row{Inventory: inv, Tier: inv.Tier()}, nil
}

// Summary totals a bank's stock with a tier per group.
func (s *Service) Summary(ctx context.Context, bankID id.BloodBankID) (models.Summary, error) {
	rows, err := s.store.ListByBank(ctx, bankID)
	if err != nil {
		return models.Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list inventory")
	}
	return models.Summarize(bankID, rows), nil
}

// Upsert applies a stock update for one group. Only the bank itself or an
// admin may change stock.
func (s *Service) Upsert(ctx context.Context, actor *dirmodels.Actor, bankID id.BloodBankID, group id.BloodGroup, update models.Update) (models.Row, error) {
	if actor == nil {
		return models.Row{}, dErrors.New(dErrors.CodeUnauthorized, "missing actor")
	}
	if !actor.IsAdmin() && !actor.ManagesBank(bankID) {
		return models.Row{}, dErrors.New(dErrors.CodeForbidden, "not permitted")
	}
	if !group.IsValid() {
		return models.Row{}, dErrors.New(dErrors.CodeValidation, "invalid blood group")
	}

	inv, err := s.store.Find(ctx, bankID, group)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		inv = &models.Inventory{
			ID:                id.InventoryID(uuid.New()),
			BloodBankID:       bankID,
			BloodGroup:        group,
			MinimumThreshold:  models.DefaultMinimumThreshold,
			CriticalThreshold: models.DefaultCriticalThreshold,
		}
	case err != nil:
		return models.Row{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load inventory")
	}

	previous := inv.UnitsAvailable
	if err := update.Apply(inv); err != nil {
		return models.Row{}, err
	}
	inv.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Upsert(ctx, inv); err != nil {
		return models.Row{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save inventory")
	}

	tier := inv.Tier()
	s.activity.Record(ctx, audit.Entry{
		ActorID:     actor.UserID,
		Action:      auditevents.ActionInventoryUpdated,
		Description: fmt.Sprintf("Inventory %s at blood bank %s set to %d units", group, bankID, inv.UnitsAvailable),
		Metadata: map[string]any{
			"blood_bank_id":            bankID.String(),
			"blood_group":              string(group),
			"previous_units_available": previous,
			"units_available":          inv.UnitsAvailable,
			"units_reserved":           inv.UnitsReserved,
			"tier":                     string(tier),
			"timestamp":                inv.UpdatedAt,
		},
	})
	if tier == models.TierCritical {
		s.logger.WarnContext(ctx, "inventory below critical threshold",
			"request_id", requestcontext.RequestID(ctx),
			"blood_bank_id", bankID.String(),
			"blood_group", string(group),
			"units_available", inv.UnitsAvailable,
		)
	}
	return models.Row{Inventory: inv, Tier: tier}, nil
}
