package core_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"quakeglobe/core"
)

func sampleCoordinates() [][2]float64 {
	var coords [][2]float64
	for lat := -90.0; lat <= 90.0; lat += 15 {
		for lon := -180.0; lon <= 180.0; lon += 20 {
			coords = append(coords, [2]float64{lat, lon})
		}
	}
	return coords
}

func TestPlanarEmbeddingIsFlat(t *testing.T) {
	for _, c := range sampleCoordinates() {
		p := core.BlendPosition(c[0], c[1], 0)
		if p.Z() != 0 {
			t.Fatalf("(%v, %v): planar z = %v", c[0], c[1], p.Z())
		}
		if n := core.BlendNormal(c[0], c[1], 0); n != (mgl32.Vec3{0, 0, 1}) {
			t.Fatalf("(%v, %v): planar normal = %v", c[0], c[1], n)
		}
	}
}

func TestSphericalEmbeddingIsUnit(t *testing.T) {
	for _, c := range sampleCoordinates() {
		p := core.BlendPosition(c[0], c[1], 1)
		if math.Abs(float64(p.Len())-1) > 1e-6 {
			t.Fatalf("(%v, %v): |p| = %v", c[0], c[1], p.Len())
		}
		n := core.BlendNormal(c[0], c[1], 1)
		if !n.ApproxEqualThreshold(p, 1e-6) {
			t.Fatalf("(%v, %v): sphere normal %v differs from position %v", c[0], c[1], n, p)
		}
	}
}

func TestSphericalEmbeddingAxes(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     mgl32.Vec3
	}{
		{"North Pole", 90, 0, mgl32.Vec3{0, 1, 0}},
		{"South Pole", -90, 0, mgl32.Vec3{0, -1, 0}},
		{"Equator Prime Meridian", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"Equator 90E", 0, 90, mgl32.Vec3{1, 0, 0}},
		{"Equator 90W", 0, -90, mgl32.Vec3{-1, 0, 0}},
		{"Date line", 0, 180, mgl32.Vec3{0, 0, -1}},
		{"45N 45E", 45, 45, mgl32.Vec3{0.5, float32(math.Sqrt2 / 2), 0.5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := core.SphericalPosition(tc.lat, tc.lon)
			if !got.ApproxEqualThreshold(tc.want, 1e-6) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBlendIsLinearAndMonotonic(t *testing.T) {
	const steps = 50
	for _, c := range sampleCoordinates() {
		planar := core.PlanarPosition(c[0], c[1])
		sphere := core.SphericalPosition(c[0], c[1])
		total := sphere.Sub(planar).Len()

		prev := float32(0)
		for i := 0; i <= steps; i++ {
			s := float32(i) / steps
			p := core.BlendPosition(c[0], c[1], s)
			want := planar.Add(sphere.Sub(planar).Mul(s))
			if !p.ApproxEqualThreshold(want, 1e-5) {
				t.Fatalf("(%v, %v) s=%v: got %v, want %v", c[0], c[1], s, p, want)
			}
			d := p.Sub(planar).Len()
			if d+1e-5 < prev {
				t.Fatalf("(%v, %v) s=%v: moved back towards the plane (%v < %v)", c[0], c[1], s, d, prev)
			}
			if d > total+1e-5 {
				t.Fatalf("(%v, %v) s=%v: overshot the sphere", c[0], c[1], s)
			}
			prev = d
		}
	}
}

func TestBlendNormalIsNotRenormalized(t *testing.T) {
	n := core.BlendNormal(0, 90, 0.5)
	want := mgl32.Vec3{0.5, 0, 0.5}
	if !n.ApproxEqualThreshold(want, 1e-6) {
		t.Fatalf("got %v, want %v", n, want)
	}
	if math.Abs(float64(n.Len())-1) < 0.1 {
		t.Errorf("blended normal was renormalized: |n| = %v", n.Len())
	}
}

func TestBlendClampsShape(t *testing.T) {
	if got, want := core.BlendPosition(30, 60, -2), core.PlanarPosition(30, 60); got != want {
		t.Errorf("s<0: got %v, want %v", got, want)
	}
	if got, want := core.BlendPosition(30, 60, 7), core.SphericalPosition(30, 60); got != want {
		t.Errorf("s>1: got %v, want %v", got, want)
	}
}
