package vis

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"quakeglobe/core"
)

const markerScale = 0.0000175

// Marker is a visible event placed on the current globe surface.
type Marker struct {
	Index     int        `json:"index"`
	Time      float64    `json:"time"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Magnitude float64    `json:"magnitude"`
	Position  mgl32.Vec3 `json:"position"`
	Radius    float32    `json:"radius"`
	Color     color.RGBA `json:"color"`
}

// MarkerRadius grows with the fourth power of the magnitude.
func MarkerRadius(magnitude float64) float32 {
	m2 := magnitude * magnitude
	return float32(m2 * m2 * markerScale)
}

// MarkerColor fades from yellow at magnitude 5 to red at magnitude 9.
func MarkerColor(magnitude float64) color.RGBA {
	g := 1 - (magnitude-5)/4
	g = math.Max(0, math.Min(1, g))
	return color.RGBA{R: 255, G: uint8(math.Round(g * 255)), B: 0, A: 255}
}

// NewMarker places e on a surface whose positions come from place.
func NewMarker(i int, e core.Event, place func(lat, lon float64) mgl32.Vec3) Marker {
	return Marker{
		Index:     i,
		Time:      e.Timestamp,
		Latitude:  e.Latitude,
		Longitude: e.Longitude,
		Magnitude: e.Magnitude,
		Position:  place(e.Latitude, e.Longitude),
		Radius:    MarkerRadius(e.Magnitude),
		Color:     MarkerColor(e.Magnitude),
	}
}
