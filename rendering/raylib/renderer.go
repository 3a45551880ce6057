// Package raylib renders the globe through raylib. Buffers are kept on the
// CPU until the first draw that uses them, which uploads them as one
// dynamic raylib mesh; later copies update the mesh buffers in place.
package raylib

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"quakeglobe/core"
	"quakeglobe/rendering/textures"
)

// MaxVertices is the largest grid raylib can index with 16-bit indices.
const MaxVertices = 1 << 16

// raylib mesh buffer slots
const (
	slotPositions = 0
	slotTexCoords = 1
	slotNormals   = 2
)

// ErrTooManyVertices is returned by CheckGrid for grids raylib cannot index.
var ErrTooManyVertices = errors.New("grid exceeds 16-bit index range")

// CheckGrid reports whether a slices x stacks grid fits in one raylib mesh.
func CheckGrid(slices, stacks int) error {
	if n := (slices + 1) * (stacks + 1); n > MaxVertices {
		return fmt.Errorf("%w: %d vertices, at most %d", ErrTooManyVertices, n, MaxVertices)
	}
	return nil
}

// Config describes the window to open.
type Config struct {
	Width, Height int
	Title         string
}

type mesh struct {
	mesh      rl.Mesh
	positions core.VertexBuffer
	normals   core.VertexBuffer
	texCoords core.VertexBuffer
	indices   []uint16
}

// Renderer implements core.Engine and vis.Backend with raylib.
type Renderer struct {
	log    logrus.FieldLogger
	camera rl.Camera3D

	next     uint32
	vertices map[core.VertexBuffer][]float32
	elements map[core.ElementBuffer][]uint32
	meshes   map[core.ElementBuffer]*mesh
	textures map[core.Texture]rl.Texture2D

	plain    rl.Material
	textured rl.Material
	color    rl.Color
}

// New opens the raylib window.
func New(cfg Config, log logrus.FieldLogger) *Renderer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Width), int32(cfg.Height), cfg.Title)
	log.WithFields(logrus.Fields{
		"width":  cfg.Width,
		"height": cfg.Height,
	}).Info("raylib window opened")

	return &Renderer{
		log: log,
		camera: rl.Camera3D{
			Position:   rl.NewVector3(0, 0, 5),
			Target:     rl.NewVector3(0, 0, 0),
			Up:         rl.NewVector3(0, 1, 0),
			Fovy:       40,
			Projection: rl.CameraPerspective,
		},
		vertices: make(map[core.VertexBuffer][]float32),
		elements: make(map[core.ElementBuffer][]uint32),
		meshes:   make(map[core.ElementBuffer]*mesh),
		textures: make(map[core.Texture]rl.Texture2D),
		plain:    rl.LoadMaterialDefault(),
		textured: rl.LoadMaterialDefault(),
		color:    rl.White,
	}
}

func (r *Renderer) handle() uint32 {
	r.next++
	return r.next
}

func (r *Renderer) AllocateVertexBuffer(size int) core.VertexBuffer {
	buf := core.VertexBuffer(r.handle())
	r.vertices[buf] = make([]float32, 0, size/4)
	return buf
}

func (r *Renderer) AllocateElementBuffer(size int) core.ElementBuffer {
	buf := core.ElementBuffer(r.handle())
	r.elements[buf] = make([]uint32, 0, size/4)
	return buf
}

// CopyVertexData stores data and pushes it to every uploaded mesh using buf.
func (r *Renderer) CopyVertexData(buf core.VertexBuffer, data []float32) {
	r.vertices[buf] = append(r.vertices[buf][:0], data...)
	for _, m := range r.meshes {
		switch buf {
		case m.positions:
			updateBuffer(m, slotPositions, r.vertices[buf])
		case m.normals:
			updateBuffer(m, slotNormals, r.vertices[buf])
		case m.texCoords:
			updateBuffer(m, slotTexCoords, r.vertices[buf])
		}
	}
}

// CopyElementData stores data. Indices are fixed once a mesh is uploaded.
func (r *Renderer) CopyElementData(buf core.ElementBuffer, data []uint32) {
	if _, uploaded := r.meshes[buf]; uploaded {
		r.log.WithField("buffer", buf).Warn("Ignoring index update of an uploaded mesh")
		return
	}
	r.elements[buf] = append(r.elements[buf][:0], data...)
}

func updateBuffer(m *mesh, slot int, data []float32) {
	if len(data) == 0 {
		return
	}
	bytes := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), 4*len(data))
	rl.UpdateMeshBuffer(m.mesh, slot, bytes, 0)
}

// LoadTexture decodes the image at path and uploads it with mipmaps.
func (r *Renderer) LoadTexture(path string) (core.Texture, error) {
	img, err := textures.Load(path)
	if err != nil {
		return 0, err
	}
	tex := rl.LoadTextureFromImage(rl.NewImageFromImage(img))
	if !rl.IsTextureValid(tex) {
		return 0, fmt.Errorf("uploading %s failed", path)
	}
	rl.GenTextureMipmaps(&tex)
	rl.SetTextureFilter(tex, rl.FilterTrilinear)

	handle := core.Texture(r.handle())
	r.textures[handle] = tex
	r.log.WithFields(logrus.Fields{
		"path":   path,
		"width":  tex.Width,
		"height": tex.Height,
	}).Info("Texture loaded")
	return handle, nil
}

// DrawElements draws the mesh indexed by call.Indices, uploading it on
// first use. It panics when the indices do not fit 16 bits; callers check
// the grid with CheckGrid first.
func (r *Renderer) DrawElements(call core.DrawCall) {
	m, ok := r.meshes[call.Indices]
	if !ok {
		m = r.upload(call)
		r.meshes[call.Indices] = m
	}

	material := r.plain
	if call.Textured {
		if m.texCoords != call.TexCoords {
			m.texCoords = call.TexCoords
			updateBuffer(m, slotTexCoords, r.vertices[call.TexCoords])
		}
		rl.SetMaterialTexture(&r.textured, rl.MapDiffuse, r.textures[call.Texture])
		material = r.textured
	}
	material.GetMap(rl.MapDiffuse).Color = r.color
	rl.DrawMesh(m.mesh, material, rl.MatrixIdentity())
}

func (r *Renderer) upload(call core.DrawCall) *mesh {
	positions := r.vertices[call.Vertices]
	normals := r.vertices[call.Normals]
	vertexCount := len(positions) / 3
	if vertexCount > MaxVertices {
		panic(fmt.Sprintf("raylib: %d vertices exceed the 16-bit index range", vertexCount))
	}

	elements := r.elements[call.Indices][:call.Count]
	indices := make([]uint16, len(elements))
	for i, e := range elements {
		indices[i] = uint16(e)
	}

	texCoords := r.vertices[call.TexCoords]
	if !call.Textured || len(texCoords) != 2*vertexCount {
		texCoords = make([]float32, 2*vertexCount)
	}

	m := &mesh{
		positions: call.Vertices,
		normals:   call.Normals,
		indices:   indices,
	}
	if call.Textured {
		m.texCoords = call.TexCoords
	}
	m.mesh = rl.Mesh{
		VertexCount:   int32(vertexCount),
		TriangleCount: int32(len(indices) / 3),
		Vertices:      unsafe.SliceData(positions),
		Normals:       unsafe.SliceData(normals),
		Texcoords:     unsafe.SliceData(texCoords),
		Indices:       unsafe.SliceData(m.indices),
	}
	rl.UploadMesh(&m.mesh, true)
	r.log.WithFields(logrus.Fields{
		"vertices":  vertexCount,
		"triangles": len(indices) / 3,
	}).Debug("Mesh uploaded")
	return m
}

// BeginFrame clears the screen and enters the fixed 3D camera.
func (r *Renderer) BeginFrame() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	rl.BeginMode3D(r.camera)
}

// EndFrame leaves 3D mode and presents the frame.
func (r *Renderer) EndFrame() {
	rl.EndMode3D()
	rl.EndDrawing()
}

func (r *Renderer) SetColor(c color.RGBA) {
	r.color = rl.NewColor(c.R, c.G, c.B, c.A)
}

func (r *Renderer) SetWireframe(on bool) {
	if on {
		rl.EnableWireMode()
	} else {
		rl.DisableWireMode()
	}
}

func (r *Renderer) DrawMarker(center mgl32.Vec3, radius float32, c color.RGBA) {
	rl.DrawSphere(rl.NewVector3(center.X(), center.Y(), center.Z()), radius, rl.NewColor(c.R, c.G, c.B, c.A))
}

// ShouldClose reports whether the window was asked to close.
func (r *Renderer) ShouldClose() bool { return rl.WindowShouldClose() }

// PollEvents is a no-op: raylib polls input in EndDrawing.
func (r *Renderer) PollEvents() {}

// Close releases meshes and textures and closes the window.
func (r *Renderer) Close() {
	for _, tex := range r.textures {
		rl.UnloadTexture(tex)
	}
	for _, m := range r.meshes {
		// the mesh arrays belong to Go, only the GPU side is released
		rl.UnloadMesh(&rl.Mesh{VaoID: m.mesh.VaoID, VboID: m.mesh.VboID})
	}
	rl.CloseWindow()
}
