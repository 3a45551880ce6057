// Package headless is an in-memory rendering backend. It keeps every buffer
// on the CPU and records draw calls, which makes it usable in tests and for
// running the visualization without a display.
package headless

import (
	"fmt"
	"image/color"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"quakeglobe/core"
)

// Marker is a recorded DrawMarker call.
type Marker struct {
	Center mgl32.Vec3
	Radius float32
	Color  color.RGBA
}

// Pass is a recorded DrawElements call together with the state it ran in.
type Pass struct {
	Call      core.DrawCall
	Color     color.RGBA
	Wireframe bool
}

// Engine implements core.Engine and the frame methods of vis.Backend.
type Engine struct {
	// IgnoreMissingTextures makes LoadTexture succeed for paths that do not
	// exist on disk.
	IgnoreMissingTextures bool

	next uint32

	vertexSize   map[core.VertexBuffer]int
	vertexData   map[core.VertexBuffer][]float32
	vertexCopies map[core.VertexBuffer]int

	elementSize   map[core.ElementBuffer]int
	elementData   map[core.ElementBuffer][]uint32
	elementCopies map[core.ElementBuffer]int

	textures map[core.Texture]string

	color     color.RGBA
	wireframe bool
	passes    []Pass
	markers   []Marker
	frames    int
	closed    bool
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		vertexSize:    make(map[core.VertexBuffer]int),
		vertexData:    make(map[core.VertexBuffer][]float32),
		vertexCopies:  make(map[core.VertexBuffer]int),
		elementSize:   make(map[core.ElementBuffer]int),
		elementData:   make(map[core.ElementBuffer][]uint32),
		elementCopies: make(map[core.ElementBuffer]int),
		textures:      make(map[core.Texture]string),
		color:         color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

func (e *Engine) handle() uint32 {
	e.next++
	return e.next
}

func (e *Engine) AllocateVertexBuffer(size int) core.VertexBuffer {
	buf := core.VertexBuffer(e.handle())
	e.vertexSize[buf] = size
	return buf
}

func (e *Engine) AllocateElementBuffer(size int) core.ElementBuffer {
	buf := core.ElementBuffer(e.handle())
	e.elementSize[buf] = size
	return buf
}

// CopyVertexData stores a copy of data. It panics when buf is unknown or
// data does not fit, as writing past a GPU buffer would.
func (e *Engine) CopyVertexData(buf core.VertexBuffer, data []float32) {
	size, ok := e.vertexSize[buf]
	if !ok {
		panic(fmt.Sprintf("headless: unknown vertex buffer %d", buf))
	}
	if 4*len(data) > size {
		panic(fmt.Sprintf("headless: %d bytes do not fit vertex buffer %d of %d bytes", 4*len(data), buf, size))
	}
	e.vertexData[buf] = append(e.vertexData[buf][:0], data...)
	e.vertexCopies[buf]++
}

// CopyElementData stores a copy of data. It panics like CopyVertexData.
func (e *Engine) CopyElementData(buf core.ElementBuffer, data []uint32) {
	size, ok := e.elementSize[buf]
	if !ok {
		panic(fmt.Sprintf("headless: unknown element buffer %d", buf))
	}
	if 4*len(data) > size {
		panic(fmt.Sprintf("headless: %d bytes do not fit element buffer %d of %d bytes", 4*len(data), buf, size))
	}
	e.elementData[buf] = append(e.elementData[buf][:0], data...)
	e.elementCopies[buf]++
}

// LoadTexture registers path after checking that it exists.
func (e *Engine) LoadTexture(path string) (core.Texture, error) {
	if path == "" {
		return 0, fmt.Errorf("headless: empty texture path")
	}
	if !e.IgnoreMissingTextures {
		if _, err := os.Stat(path); err != nil {
			return 0, err
		}
	}
	tex := core.Texture(e.handle())
	e.textures[tex] = path
	return tex, nil
}

func (e *Engine) DrawElements(call core.DrawCall) {
	e.passes = append(e.passes, Pass{Call: call, Color: e.color, Wireframe: e.wireframe})
}

// BeginFrame clears the passes and markers recorded for the previous frame.
func (e *Engine) BeginFrame() {
	e.passes = e.passes[:0]
	e.markers = e.markers[:0]
}

func (e *Engine) EndFrame() { e.frames++ }

func (e *Engine) SetColor(c color.RGBA) { e.color = c }

func (e *Engine) SetWireframe(on bool) { e.wireframe = on }

func (e *Engine) DrawMarker(center mgl32.Vec3, radius float32, c color.RGBA) {
	e.markers = append(e.markers, Marker{Center: center, Radius: radius, Color: c})
}

// ShouldClose reports whether Close was called.
func (e *Engine) ShouldClose() bool { return e.closed }

func (e *Engine) PollEvents() {}

// Close makes ShouldClose return true.
func (e *Engine) Close() { e.closed = true }

// VertexData returns the last data copied into buf.
func (e *Engine) VertexData(buf core.VertexBuffer) []float32 { return e.vertexData[buf] }

// ElementData returns the last data copied into buf.
func (e *Engine) ElementData(buf core.ElementBuffer) []uint32 { return e.elementData[buf] }

// VertexCopies returns how many times buf was written.
func (e *Engine) VertexCopies(buf core.VertexBuffer) int { return e.vertexCopies[buf] }

// ElementCopies returns how many times buf was written.
func (e *Engine) ElementCopies(buf core.ElementBuffer) int { return e.elementCopies[buf] }

// VertexBufferSize returns the allocated size of buf in bytes.
func (e *Engine) VertexBufferSize(buf core.VertexBuffer) int { return e.vertexSize[buf] }

// ElementBufferSize returns the allocated size of buf in bytes.
func (e *Engine) ElementBufferSize(buf core.ElementBuffer) int { return e.elementSize[buf] }

// Allocations returns the number of buffers allocated so far.
func (e *Engine) Allocations() int { return len(e.vertexSize) + len(e.elementSize) }

// TexturePath returns the path tex was loaded from.
func (e *Engine) TexturePath(tex core.Texture) string { return e.textures[tex] }

// Passes returns the draw calls recorded since the last BeginFrame.
func (e *Engine) Passes() []Pass { return e.passes }

// Markers returns the markers recorded since the last BeginFrame.
func (e *Engine) Markers() []Marker { return e.markers }

// Frames returns the number of completed frames.
func (e *Engine) Frames() int { return e.frames }
