// Package geo provides pure great-circle math used by the presence engine.
package geo

import (
	"fmt"
	"math"

	"location-service/internal/domain"
)

// EarthRadiusMeters is the mean earth radius of the spherical approximation.
const EarthRadiusMeters = 6371000.0

// ValidLatitude reports whether lat is within [-90, 90].
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lon is within [-180, 180].
func ValidLongitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}

// DistanceMeters returns the haversine great-circle distance between two
// points. Inputs outside valid latitude/longitude ranges fail with
// domain.ErrInvalidCoordinate.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if !ValidLatitude(lat1) || !ValidLatitude(lat2) {
		return 0, fmt.Errorf("%w: latitude must be within [-90, 90]", domain.ErrInvalidCoordinate)
	}
	if !ValidLongitude(lon1) || !ValidLongitude(lon2) {
		return 0, fmt.Errorf("%w: longitude must be within [-180, 180]", domain.ErrInvalidCoordinate)
	}

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c, nil
}

// IsWithin reports whether the point lies inside the circle. A point exactly
// on the boundary counts as inside; this tie-break determines geofence
// entry/exit behavior.
func IsWithin(lat, lon, centerLat, centerLon, radiusMeters float64) (bool, error) {
	d, err := DistanceMeters(lat, lon, centerLat, centerLon)
	if err != nil {
		return false, err
	}
	return d <= radiusMeters, nil
}
