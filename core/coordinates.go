package core

import (
	"math"
)

// DegreesToRadians converts degrees to radians
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// GridLatitude returns the latitude in degrees of grid row r.
// Row 0 is the north pole, row stacks the south pole.
func GridLatitude(r, stacks int) float64 {
	return 90.0 - 180.0*float64(r)/float64(stacks)
}

// GridLongitude returns the longitude in degrees of grid column c.
// Columns 0 and slices both sit on the date line.
func GridLongitude(c, slices int) float64 {
	return -180.0 + 360.0*float64(c)/float64(slices)
}

// NormalizeLongitude wraps a longitude in degrees into [-180, 180].
func NormalizeLongitude(lonDegrees float64) float64 {
	if lonDegrees >= -180.0 && lonDegrees <= 180.0 {
		return lonDegrees
	}
	lon := math.Mod(lonDegrees+180.0, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon - 180.0
}
