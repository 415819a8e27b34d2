package geo

import "database/sql"

// FromNull builds a Location from nullable columns.
func FromNull(lat, lon sql.NullFloat64) Location {
	var l Location
	if lat.Valid {
		v := lat.Float64
		l.Latitude = &v
	}
	if lon.Valid {
		v := lon.Float64
		l.Longitude = &v
	}
	return l
}

// NullLatitude and NullLongitude return column values for inserts.
func (l Location) NullLatitude() sql.NullFloat64 {
	if l.Latitude == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *l.Latitude, Valid: true}
}

func (l Location) NullLongitude() sql.NullFloat64 {
	if l.Longitude == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *l.Longitude, Valid: true}
}
