package models

import (
	"cmp"
	"slices"

	"bloodlink/internal/geo"
)

// Measure computes the distance from origin to every candidate in order.
// Candidates whose distance is unknown, including malformed coordinates, are
// left out and counted in skipped.
func Measure(origin geo.Location, candidates []Candidate) (ranked []Ranked, skipped int) {
	ranked = make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		km, ok, err := geo.Distance(origin, c.Location)
		if err != nil || !ok {
			skipped++
			continue
		}
		ranked = append(ranked, Ranked{
			Type:       c.Type,
			ID:         c.ID,
			UserID:     c.UserID,
			Name:       c.Name,
			BloodGroup: c.BloodGroup,
			DistanceKm: km,
		})
	}
	return ranked, skipped
}

// Combine merges per-type rankings into one list sorted ascending by
// distance. Equal distances keep donors before hospitals before blood banks,
// then the original collection order. The first entry of each type is its
// nearest.
func Combine(donors, hospitals, banks []Ranked) ([]Ranked, Nearest) {
	combined := make([]Ranked, 0, len(donors)+len(hospitals)+len(banks))
	combined = append(combined, donors...)
	combined = append(combined, hospitals...)
	combined = append(combined, banks...)
	slices.SortStableFunc(combined, func(a, b Ranked) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return cmp.Compare(a.Type.order(), b.Type.order())
	})

	var nearest Nearest
	for i := range combined {
		r := &combined[i]
		switch r.Type {
		case EntityDonor:
			if nearest.Donor == nil {
				nearest.Donor = r
			}
		case EntityHospital:
			if nearest.Hospital == nil {
				nearest.Hospital = r
			}
		case EntityBloodBank:
			if nearest.BloodBank == nil {
				nearest.BloodBank = r
			}
		}
	}
	return combined, nearest
}
