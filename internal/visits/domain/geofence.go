package domain

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// DefaultGeofenceThresholdMeters is the check-in radius applied when no
// override is configured.
const DefaultGeofenceThresholdMeters = 200.0

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64
	Lng float64
}

// DistanceMeters computes the great-circle distance between two
// positions using the haversine formula.
func DistanceMeters(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// WithinGeofence reports whether the reported position is at most
// threshold meters from the target. The boundary itself is inside.
func WithinGeofence(reported, target Coordinates, thresholdMeters float64) bool {
	return DistanceMeters(reported, target) <= thresholdMeters
}
