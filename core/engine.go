package core

// VertexBuffer, ElementBuffer and Texture are opaque backend handles.
// The zero value means "no buffer".
type (
	VertexBuffer  uint32
	ElementBuffer uint32
	Texture       uint32
)

// Engine is the capability set a rendering backend offers the globe.
// Sizes are in bytes.
type Engine interface {
	AllocateVertexBuffer(size int) VertexBuffer
	AllocateElementBuffer(size int) ElementBuffer
	CopyVertexData(buf VertexBuffer, data []float32)
	CopyElementData(buf ElementBuffer, data []uint32)
	LoadTexture(path string) (Texture, error)
	DrawElements(call DrawCall)
}

// DrawCall describes one indexed triangle pass.
type DrawCall struct {
	Vertices  VertexBuffer
	Normals   VertexBuffer
	TexCoords VertexBuffer // zero for untextured passes
	Texture   Texture
	Textured  bool
	Indices   ElementBuffer
	Count     int // number of indices, 3 per triangle
}

const (
	float32Size = 4
	uint32Size  = 4
)
