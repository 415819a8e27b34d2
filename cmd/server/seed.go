package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	dirmodels "bloodlink/internal/directory/models"
	donormodels "bloodlink/internal/donor/models"
)

// fixtures is the on-disk shape of BLOODLINK_SEED_FILE. Registration is
// handled elsewhere; this only loads existing entities.
type fixtures struct {
	Donors     []*donormodels.Profile `json:"donors"`
	Hospitals  []*dirmodels.Hospital  `json:"hospitals"`
	BloodBanks []*dirmodels.BloodBank `json:"blood_banks"`
	Receivers  []*dirmodels.Receiver  `json:"receivers"`
}

func loadFixtures(path string) (*fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f fixtures
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// seed saves every fixture. Saves are upserts that leave donation counters
// alone, so reseeding on restart is harmless.
func seed(ctx context.Context, s *stores, f *fixtures) (int, error) {
	var saved int
	save := func(kind string, err error) error {
		if err != nil {
			return fmt.Errorf("seed %s: %w", kind, err)
		}
		saved++
		return nil
	}
	for _, h := range f.Hospitals {
		if err := save("hospital", s.directory.SaveHospital(ctx, h)); err != nil {
			return saved, err
		}
	}
	for _, b := range f.BloodBanks {
		if err := save("blood bank", s.directory.SaveBloodBank(ctx, b)); err != nil {
			return saved, err
		}
	}
	for _, r := range f.Receivers {
		if err := save("receiver", s.directory.SaveReceiver(ctx, r)); err != nil {
			return saved, err
		}
	}
	for _, d := range f.Donors {
		if err := save("donor", s.donors.Save(ctx, d)); err != nil {
			return saved, err
		}
	}
	return saved, nil
}
