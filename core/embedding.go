package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PlanarPosition places (lat, lon) in degrees on the flat map in the XY plane.
func PlanarPosition(latitude, longitude float64) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Pi * longitude / 180),
		float32(math.Pi / 2 * latitude / 90),
		0,
	}
}

// SphericalPosition returns the unit sphere point for (lat, lon) in degrees.
// Y points to the north pole and (0,0) maps to +Z.
func SphericalPosition(latitude, longitude float64) mgl32.Vec3 {
	lat := DegreesToRadians(latitude)
	lon := DegreesToRadians(longitude)
	cosLat := math.Cos(lat)
	return mgl32.Vec3{
		float32(cosLat * math.Sin(lon)),
		float32(math.Sin(lat)),
		float32(cosLat * math.Cos(lon)),
	}
}

// BlendPosition interpolates linearly between the planar and spherical
// embeddings. s=0 and s=1 return the pure embeddings exactly.
func BlendPosition(latitude, longitude float64, s float32) mgl32.Vec3 {
	switch {
	case s <= 0:
		return PlanarPosition(latitude, longitude)
	case s >= 1:
		return SphericalPosition(latitude, longitude)
	}
	return blend(PlanarPosition(latitude, longitude), SphericalPosition(latitude, longitude), s)
}

// BlendNormal interpolates the planar normal (0,0,1) and the sphere normal the
// same way BlendPosition does. The result is not renormalized.
func BlendNormal(latitude, longitude float64, s float32) mgl32.Vec3 {
	planar := mgl32.Vec3{0, 0, 1}
	switch {
	case s <= 0:
		return planar
	case s >= 1:
		return SphericalPosition(latitude, longitude).Normalize()
	}
	return blend(planar, SphericalPosition(latitude, longitude).Normalize(), s)
}

func blend(planar, spherical mgl32.Vec3, s float32) mgl32.Vec3 {
	return spherical.Mul(s).Add(planar.Mul(1 - s))
}
