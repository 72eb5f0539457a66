// Package geo provides great-circle distance over the WGS-84 sphere
// approximation for proximity filtering.
package geo

import "math"

// EarthRadiusKm is the sphere radius used for all distance computations.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance in kilometers between two
// coordinates given in degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)

	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// WithinRadius reports whether the candidate point lies within radiusKm of
// the center point.
func WithinRadius(centerLat, centerLon, lat, lon, radiusKm float64) bool {
	return DistanceKm(centerLat, centerLon, lat, lon) <= radiusKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
