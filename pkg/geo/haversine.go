// Package geo provides great-circle distance helpers used for radius filtering.
package geo

import "math"

// EarthRadiusMiles is the Earth radius used for all distance calculations.
const EarthRadiusMiles = 3958.8

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" db:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" db:"lng" validate:"gte=-180,lte=180"`
}

// HaversineMiles returns the great-circle distance in miles between two points.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// Distance is HaversineMiles over Coordinates.
func Distance(a, b Coordinates) float64 {
	return HaversineMiles(a.Lat, a.Lng, b.Lat, b.Lng)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
