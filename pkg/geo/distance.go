// Package geo provides the distance, duplicate and nearest-location logic
// used to pick the card for the shop closest to the user.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
// The pair (0, 0) means "unset" and is never treated as a real location.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance returns the great-circle distance in kilometers between two points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	// Rounding can push a a hair outside [0,1] for antipodal points.
	a = math.Max(0, math.Min(1, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceTo returns the distance in kilometers from c to other.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return Distance(c.Lat, c.Lng, other.Lat, other.Lng)
}

// DistanceMeters returns the distance between a and b in meters.
func DistanceMeters(a, b Coordinate) float64 {
	return a.DistanceTo(b) * 1000
}

// InRange reports whether c is finite with lat in [-90, 90] and lng in [-180, 180].
func (c Coordinate) InRange() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// IsValidLocation reports whether c holds a real location: in range and
// not the exact pair (0, 0). Either component alone may be zero.
func IsValidLocation(c Coordinate) bool {
	return c.InRange() && !(c.Lat == 0 && c.Lng == 0)
}

// Valid is shorthand for IsValidLocation(c).
func (c Coordinate) Valid() bool {
	return IsValidLocation(c)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
