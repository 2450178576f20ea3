package utils

import (
	"fmt"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// averageCitySpeedKmh is the assumed driving speed for travel estimates.
const averageCitySpeedKmh = 40.0

// ValidateCoordinates rejects out-of-range latitude/longitude pairs. Callers
// must validate before computing distances; Haversine itself assumes valid
// input.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	return nil
}

// Haversine returns the great-circle distance in meters between two
// coordinates. Out-of-range input is a caller contract violation.
func Haversine(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := ValidateCoordinates(lat1, lon1); err != nil {
		return 0, err
	}
	if err := ValidateCoordinates(lat2, lon2); err != nil {
		return 0, err
	}

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c, nil
}

// EstimateTravelMinutes converts a distance to driving minutes at city speed.
// The traffic factor scales the estimate (1.0 normal, 1.5 heavy). Result is
// floored at one minute.
func EstimateTravelMinutes(distanceKm, trafficFactor float64) int {
	hours := (distanceKm / averageCitySpeedKmh) * trafficFactor
	minutes := int(math.Round(hours * 60))
	if minutes < 1 {
		return 1
	}
	return minutes
}
