// Package geo holds the small amount of geodesy the rest of the app needs.
package geo

import "math"

// EARTH_RADIUS_NM is the mean Earth radius in nautical miles.
const EARTH_RADIUS_NM = 3440.065

// Point is a WGS 84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceNM returns the great-circle distance between a and b in nautical
// miles, via the haversine formula.
func DistanceNM(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EARTH_RADIUS_NM * math.Asin(math.Sqrt(h))
}

// NormalizeCourse maps a course in degrees onto [0, 360).
func NormalizeCourse(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// CourseWithin reports whether course c lies inside the window [min, max].
// A window with min > max wraps through north, e.g. [330, 30].
func CourseWithin(c, min, max float64) bool {
	c = NormalizeCourse(c)
	if min <= max {
		return c >= min && c <= max
	}
	return c >= min || c <= max
}

// WindowMidpoint returns the bearing halfway through the window [min, max],
// following the window's own direction around the compass.
func WindowMidpoint(min, max float64) float64 {
	span := math.Mod(max-min+360, 360)
	return NormalizeCourse(min + span/2)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
