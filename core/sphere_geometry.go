package core

import (
	"math"
)

// GridTexCoords returns (u, v) = (c/slices, r/stacks) for every grid vertex,
// row by row from the north pole.
func GridTexCoords(slices, stacks int) []float32 {
	texCoords := make([]float32, 0, 2*(slices+1)*(stacks+1))
	for r := 0; r <= stacks; r++ {
		v := float32(r) / float32(stacks)
		for c := 0; c <= slices; c++ {
			u := float32(c) / float32(slices)
			texCoords = append(texCoords, u, v)
		}
	}
	return texCoords
}

// GridIndices returns two counter-clockwise triangles per grid cell.
func GridIndices(slices, stacks int) []uint32 {
	indices := make([]uint32, 0, 6*slices*stacks)
	stride := uint32(slices + 1)
	for r := 0; r < stacks; r++ {
		for c := 0; c < slices; c++ {
			current := uint32(r)*stride + uint32(c)
			below := current + stride

			// First triangle
			indices = append(indices, current, below, below+1)

			// Second triangle
			indices = append(indices, current, below+1, current+1)
		}
	}
	return indices
}

// SphereData is an indexed unit UV sphere.
type SphereData struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
}

// GenerateSphereData generates a unit UV sphere used for event markers.
func GenerateSphereData(segments, rings int) SphereData {
	// Use default values if not specified
	if segments <= 0 {
		segments = 16
	}
	if rings <= 0 {
		rings = 8
	}

	var data SphereData

	// Create vertices
	for ring := 0; ring <= rings; ring++ {
		theta := float64(ring) * math.Pi / float64(rings)
		sinTheta := float32(math.Sin(theta))
		cosTheta := float32(math.Cos(theta))

		for seg := 0; seg <= segments; seg++ {
			phi := float64(seg) * 2.0 * math.Pi / float64(segments)
			sinPhi := float32(math.Sin(phi))
			cosPhi := float32(math.Cos(phi))

			x := sinPhi * sinTheta
			y := cosTheta
			z := cosPhi * sinTheta

			// Normal is the position on a unit sphere
			data.Positions = append(data.Positions, x, y, z)
			data.Normals = append(data.Normals, x, y, z)
		}
	}

	// Create indices, same winding as the globe grid
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments) + 1

			data.Indices = append(data.Indices, current, next, next+1)
			data.Indices = append(data.Indices, current, next+1, current+1)
		}
	}

	return data
}
