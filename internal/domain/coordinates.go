package domain

import (
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000.0

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Round both components to the given number of decimal places.
// Rounding is idempotent: c.Round(p).Round(p) == c.Round(p).
func (c Coordinates) Round(precision int) Coordinates {
	return Coordinates{
		Lat: roundTo(c.Lat, precision),
		Lon: roundTo(c.Lon, precision),
	}
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

func roundTo(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(a, b Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Centroid returns the arithmetic mean of the given points.
// Adequate for the city-scale spreads an itinerary covers.
func Centroid(points []Coordinates) Coordinates {
	if len(points) == 0 {
		return Coordinates{}
	}

	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return Coordinates{Lat: lat / n, Lon: lon / n}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Directional origin->destination pair used as a lookup key.
type Pair struct {
	From Coordinates
	To   Coordinates
}
