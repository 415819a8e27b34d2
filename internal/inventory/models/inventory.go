package models

import (
	"time"

	id "bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// Tier is the derived stock level of one bank/group row.
type Tier string

const (
	TierCritical Tier = "critical"
	TierLow      Tier = "low"
	TierNormal   Tier = "normal"
	TierFull     Tier = "full"
)

// FullStockBoundary separates normal from full stock. It is fixed, not a
// per-bank threshold.
const FullStockBoundary = 50

const (
	DefaultMinimumThreshold  = 10
	DefaultCriticalThreshold = 5
)

// Classify derives the tier from the available count and the row's
// thresholds.
func Classify(unitsAvailable, minimumThreshold, criticalThreshold int) Tier {
	switch {
	case unitsAvailable < criticalThreshold:
		return TierCritical
	case unitsAvailable < minimumThreshold:
		return TierLow
	case unitsAvailable < FullStockBoundary:
		return TierNormal
	default:
		return TierFull
	}
}

// Inventory is the stock of one blood group at one bank. The tier is never
// stored; call Tier.
type Inventory struct {
	ID                id.InventoryID `json:"id"`
	BloodBankID       id.BloodBankID `json:"blood_bank_id"`
	BloodGroup        id.BloodGroup  `json:"blood_group"`
	UnitsAvailable    int            `json:"units_available"`
	UnitsReserved     int            `json:"units_reserved"`
	MinimumThreshold  int            `json:"minimum_threshold"`
	CriticalThreshold int            `json:"critical_threshold"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (i *Inventory) Tier() Tier {
	return Classify(i.UnitsAvailable, i.MinimumThreshold, i.CriticalThreshold)
}

// Update is a stock change submitted by a blood bank or admin. Nil
// thresholds keep the current value, or the default for a new row.
type Update struct {
	UnitsAvailable    int  `json:"units_available"`
	UnitsReserved     int  `json:"units_reserved"`
	MinimumThreshold  *int `json:"minimum_threshold,omitempty"`
	CriticalThreshold *int `json:"critical_threshold,omitempty"`
}

// Apply merges u into inv and validates the result.
func (u Update) Apply(inv *Inventory) error {
	if u.UnitsAvailable < 0 || u.UnitsReserved < 0 {
		return dErrors.New(dErrors.CodeValidation, "unit counts cannot be negative")
	}
	inv.UnitsAvailable = u.UnitsAvailable
	inv.UnitsReserved = u.UnitsReserved
	if u.MinimumThreshold != nil {
		inv.MinimumThreshold = *u.MinimumThreshold
	}
	if u.CriticalThreshold != nil {
		inv.CriticalThreshold = *u.CriticalThreshold
	}
	if inv.MinimumThreshold < 0 || inv.CriticalThreshold < 0 {
		return dErrors.New(dErrors.CodeValidation, "thresholds cannot be negative")
	}
	if inv.CriticalThreshold > inv.MinimumThreshold {
		return dErrors.New(dErrors.CodeValidation, "critical threshold cannot exceed minimum threshold")
	}
	return nil
}

// Row is one inventory line with its derived tier.
type Row struct {
	*Inventory
	Tier Tier `json:"tier"`
}

// Summary is a bank's stock across all groups.
type Summary struct {
	BloodBankID    id.BloodBankID  `json:"blood_bank_id"`
	Rows           []Row           `json:"rows"`
	TotalAvailable int             `json:"total_available"`
	TotalReserved  int             `json:"total_reserved"`
	CriticalGroups []id.BloodGroup `json:"critical_groups"`
}

// Summarize builds a Summary from a bank's rows.
func Summarize(bankID id.BloodBankID, rows []*Inventory) Summary {
	s := Summary{BloodBankID: bankID, Rows: make([]Row, 0, len(rows)), CriticalGroups: []id.BloodGroup{}}
	for _, inv := range rows {
		tier := inv.Tier()
		s.Rows = append(s.Rows, Row{Inventory: inv, Tier: tier})
		s.TotalAvailable += inv.UnitsAvailable
		s.TotalReserved += inv.UnitsReserved
		if tier == TierCritical {
			s.CriticalGroups = append(s.CriticalGroups, inv.BloodGroup)
		}
	}
	return s
}
