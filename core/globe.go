package core

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidGrid is returned for grids with fewer than one slice or stack.
	ErrInvalidGrid = errors.New("invalid globe grid")
	// ErrTexture wraps surface texture load failures.
	ErrTexture = errors.New("globe texture")
)

// GlobeConfig holds the construction parameters of a Globe.
type GlobeConfig struct {
	Slices      int     // longitude divisions
	Stacks      int     // latitude divisions
	Shape       float32 // initial shape, 0 = flat map, 1 = sphere
	TexturePath string
}

// Globe is a latitude/longitude grid that morphs between a flat map and a
// unit sphere. Topology and texture coordinates are built once; SetShape only
// rewrites the position and normal buffers.
type Globe struct {
	engine Engine

	slices, stacks        int
	nVertices, nTriangles int
	shape                 float32

	vertexBuffer   VertexBuffer
	normalBuffer   VertexBuffer
	texCoordBuffer VertexBuffer
	indexBuffer    ElementBuffer
	texture        Texture

	// reused by every SetShape
	positions []float32
	normals   []float32
}

// NewGlobe validates the grid, loads the surface texture and uploads the
// initial buffers to engine.
func NewGlobe(engine Engine, cfg GlobeConfig) (*Globe, error) {
	if cfg.Slices < 1 || cfg.Stacks < 1 {
		return nil, fmt.Errorf("%w: slices=%d stacks=%d, both must be at least 1",
			ErrInvalidGrid, cfg.Slices, cfg.Stacks)
	}

	texture, err := engine.LoadTexture(cfg.TexturePath)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %q: %w", ErrTexture, cfg.TexturePath, err)
	}

	g := &Globe{
		engine:     engine,
		slices:     cfg.Slices,
		stacks:     cfg.Stacks,
		nVertices:  (cfg.Slices + 1) * (cfg.Stacks + 1),
		nTriangles: 2 * cfg.Slices * cfg.Stacks,
		shape:      clampShape(cfg.Shape),
		texture:    texture,
	}
	g.positions = make([]float32, 3*g.nVertices)
	g.normals = make([]float32, 3*g.nVertices)
	g.fillSurface()

	texCoords := GridTexCoords(g.slices, g.stacks)
	indices := GridIndices(g.slices, g.stacks)

	vec3Bytes := 3 * float32Size * g.nVertices
	g.vertexBuffer = engine.AllocateVertexBuffer(vec3Bytes)
	g.normalBuffer = engine.AllocateVertexBuffer(vec3Bytes)
	g.texCoordBuffer = engine.AllocateVertexBuffer(2 * float32Size * g.nVertices)
	g.indexBuffer = engine.AllocateElementBuffer(uint32Size * len(indices))

	engine.CopyVertexData(g.vertexBuffer, g.positions)
	engine.CopyVertexData(g.normalBuffer, g.normals)
	engine.CopyVertexData(g.texCoordBuffer, texCoords)
	engine.CopyElementData(g.indexBuffer, indices)

	Logger().WithFields(logrus.Fields{
		"slices":    g.slices,
		"stacks":    g.stacks,
		"vertices":  g.nVertices,
		"triangles": g.nTriangles,
		"shape":     g.shape,
	}).Info("globe initialized")

	return g, nil
}

// Shape returns the current shape parameter.
func (g *Globe) Shape() float32 {
	return g.shape
}

// SetShape re-blends every vertex for shape s, clamped to [0,1], and
// re-uploads the position and normal buffers. It is a no-op when s equals the
// current shape.
func (g *Globe) SetShape(s float32) {
	s = clampShape(s)
	if s == g.shape {
		return
	}
	g.shape = s
	g.fillSurface()
	g.engine.CopyVertexData(g.vertexBuffer, g.positions)
	g.engine.CopyVertexData(g.normalBuffer, g.normals)
	Logger().WithField("shape", s).Debug("globe reshaped")
}

// Position returns where (lat, lon) in degrees sits on the globe's current
// surface.
func (g *Globe) Position(latitude, longitude float64) mgl32.Vec3 {
	return BlendPosition(latitude, longitude, g.shape)
}

// Normal returns the unnormalized surface normal at (lat, lon).
func (g *Globe) Normal(latitude, longitude float64) mgl32.Vec3 {
	return BlendNormal(latitude, longitude, g.shape)
}

// Draw renders the globe, with the surface texture when textured is set.
func (g *Globe) Draw(textured bool) {
	call := DrawCall{
		Vertices: g.vertexBuffer,
		Normals:  g.normalBuffer,
		Indices:  g.indexBuffer,
		Count:    3 * g.nTriangles,
	}
	if textured {
		call.Textured = true
		call.TexCoords = g.texCoordBuffer
		call.Texture = g.texture
	}
	g.engine.DrawElements(call)
}

func (g *Globe) Slices() int { return g.slices }

func (g *Globe) Stacks() int { return g.stacks }

// VertexCount is (slices+1)*(stacks+1): the seam and pole rows are duplicated.
func (g *Globe) VertexCount() int { return g.nVertices }

func (g *Globe) TriangleCount() int { return g.nTriangles }

// fillSurface writes positions and normals for the current shape in place.
func (g *Globe) fillSurface() {
	i := 0
	for r := 0; r <= g.stacks; r++ {
		lat := GridLatitude(r, g.stacks)
		for c := 0; c <= g.slices; c++ {
			lon := GridLongitude(c, g.slices)
			p := BlendPosition(lat, lon, g.shape)
			n := BlendNormal(lat, lon, g.shape)
			copy(g.positions[i:i+3], p[:])
			copy(g.normals[i:i+3], n[:])
			i += 3
		}
	}
}

// clampShape maps s into [0, 1]; NaN becomes the flat map.
func clampShape(s float32) float32 {
	if s != s {
		return 0
	}
	return mgl32.Clamp(s, 0, 1)
}
