// Package geo computes great-circle distances between registered locations.
package geo

import (
	"math"

	dErrors "bloodlink/pkg/domain-errors"
)

// EarthRadiusKm is the mean Earth radius used for every distance.
const EarthRadiusKm = 6371.0

// Location is a registered coordinate pair. Either coordinate may be unknown.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// At builds a fully known location.
func At(lat, lon float64) Location {
	return Location{Latitude: &lat, Longitude: &lon}
}

// Known reports whether both coordinates are present.
func (l Location) Known() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Validate rejects non-finite or out-of-range coordinates. Missing
// coordinates are not an error.
func (l Location) Validate() error {
	if l.Latitude != nil {
		lat := *l.Latitude
		if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
			return dErrors.New(dErrors.CodeValidation, "latitude must be within [-90, 90]")
		}
	}
	if l.Longitude != nil {
		lon := *l.Longitude
		if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
			return dErrors.New(dErrors.CodeValidation, "longitude must be within [-180, 180]")
		}
	}
	return nil
}

// Distance returns the haversine distance in km between a and b, rounded to
// two decimals. ok is false when any coordinate is missing.
func Distance(a, b Location) (km float64, ok bool, err error) {
	if err := a.Validate(); err != nil {
		return 0, false, err
	}
	if err := b.Validate(); err != nil {
		return 0, false, err
	}
	if !a.Known() || !b.Known() {
		return 0, false, nil
	}

	lat1 := toRadians(*a.Latitude)
	lat2 := toRadians(*b.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(*b.Longitude) - toRadians(*a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h a hair above 1 for antipodal points
	h = math.Min(1, h)
	c := 2 * math.Asin(math.Sqrt(h))

	return round2(EarthRadiusKm * c), true, nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
