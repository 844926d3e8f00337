package geo

import "math"

const (
	// EarthRadiusMeters is Earth's radius in meters for the Haversine formula.
	EarthRadiusMeters = 6371000.0
	// ArrivalRadiusMeters is the proximity threshold for auto-detecting arrival.
	ArrivalRadiusMeters = 40.0
	// DefaultSpeedKmph is the constant-speed assumption behind ETA estimates.
	DefaultSpeedKmph = 30.0
)

// HaversineMeters calculates the great-circle distance between two points
// on Earth in meters using the Haversine formula.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// WithinArrivalRadius checks if two coordinates are within the arrival
// proximity threshold.
func WithinArrivalRadius(lat1, lon1, lat2, lon2 float64) bool {
	return HaversineMeters(lat1, lon1, lat2, lon2) <= ArrivalRadiusMeters
}

// ETASeconds estimates travel time over distanceMeters at speedKmph.
// Returns false when the speed is not positive.
func ETASeconds(distanceMeters, speedKmph float64) (int, bool) {
	speedMs := speedKmph * 1000 / 3600
	if speedMs <= 0 {
		return 0, false
	}
	return int(math.Round(distanceMeters / speedMs)), true
}
