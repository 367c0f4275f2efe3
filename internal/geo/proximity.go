package geo

import "math"

// kmPerDegree is the flat-earth conversion used throughout the simulation.
// It ignores longitude compression at latitude; the simulation areas are
// small and the wire contract fixes this constant.
const kmPerDegree = 111.0

// Point is a coordinate pair; either component may be absent.
type Point struct {
	Lat *float64
	Lon *float64
}

// Distance returns the approximate distance in kilometers between two
// coordinate pairs using a planar approximation.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	latDiff := lat1 - lat2
	lonDiff := lon1 - lon2
	return math.Sqrt(latDiff*latDiff+lonDiff*lonDiff) * kmPerDegree
}

// Within reports whether p lies within radiusKm of the query point.
// A point missing either coordinate is never within range.
func Within(p Point, lat, lon, radiusKm float64) bool {
	if p.Lat == nil || p.Lon == nil {
		return false
	}
	return Distance(*p.Lat, *p.Lon, lat, lon) <= radiusKm
}

// ValidLat reports whether lat is a legal latitude
func ValidLat(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLon reports whether lon is a legal longitude
func ValidLon(lon float64) bool {
	return lon >= -180 && lon <= 180
}

// ZoneFor derives the operating zone from coordinates using the LA and
// San Diego bounding boxes from the simulation's seed data.
func ZoneFor(lat, lon float64) string {
	switch {
	case lat >= 33.7 && lat <= 34.5 && lon >= -118.5 && lon <= -117.5:
		return "LA"
	case lat >= 32.5 && lat <= 33.2 && lon >= -117.5 && lon <= -116.8:
		return "San Diego"
	}
	return "Unknown"
}
