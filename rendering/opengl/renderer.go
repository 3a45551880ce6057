// Package opengl renders the globe in a GLFW window with an OpenGL 4.1 core
// context. It must be created and used from the main OS thread.
package opengl

import (
	"fmt"
	"image/color"
	"io"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"quakeglobe/core"
	"quakeglobe/rendering/textures"
)

const (
	cameraDistance = 5
	fieldOfView    = 40 // degrees, vertical
	markerSegments = 16
	markerRings    = 8
)

// Config describes the window to open.
type Config struct {
	Width, Height int
	Title         string
	VSync         bool
	// MaxTextureSize bounds the uploaded surface texture; 0 uses the
	// driver limit.
	MaxTextureSize int
}

// Renderer implements core.Engine and vis.Backend on top of OpenGL.
type Renderer struct {
	window *glfw.Window
	log    logrus.FieldLogger

	program   uint32
	globeVAO  uint32
	markerVAO uint32

	markerPositions uint32
	markerNormals   uint32
	markerIndices   uint32
	markerCount     int32

	projection mgl32.Mat4
	view       mgl32.Mat4

	uProjection, uView, uModel  int32
	uColor, uTextured, uSurface int32

	width, height  int
	maxTextureSize int
}

// New opens the window, creates the context and compiles the shaders.
func New(cfg Config, log logrus.FieldLogger) (*Renderer, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.WithField("version", gl.GoStr(gl.GetString(gl.VERSION))).Info("OpenGL context created")

	r := &Renderer{window: window, log: log, maxTextureSize: cfg.MaxTextureSize}

	program, err := newProgram(globeVertexShader, globeFragmentShader)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to compile globe shaders: %w", err)
	}
	r.program = program
	r.uProjection = uniform(program, "projection")
	r.uView = uniform(program, "view")
	r.uModel = uniform(program, "model")
	r.uColor = uniform(program, "color")
	r.uTextured = uniform(program, "textured")
	r.uSurface = uniform(program, "surface")

	gl.GenVertexArrays(1, &r.globeVAO)
	gl.BindVertexArray(r.globeVAO)
	r.createMarkerSphere()

	gl.Enable(gl.DEPTH_TEST)
	// lines drawn over filled polygons stay visible
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(1, 1)
	gl.ClearColor(0, 0, 0, 1)

	r.view = mgl32.LookAtV(
		mgl32.Vec3{0, 0, cameraDistance},
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 1, 0},
	)
	fbw, fbh := window.GetFramebufferSize()
	r.onResize(fbw, fbh)
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		r.onResize(width, height)
	})

	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uView, 1, false, &r.view[0])
	gl.Uniform1i(r.uSurface, 0)
	r.SetColor(color.RGBA{R: 255, G: 255, B: 255, A: 255})

	return r, nil
}

func (r *Renderer) onResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	aspect := float32(width) / float32(height)
	r.projection = mgl32.Perspective(mgl32.DegToRad(fieldOfView), aspect, 0.1, 100)
	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uProjection, 1, false, &r.projection[0])
}

func (r *Renderer) createMarkerSphere() {
	sphere := core.GenerateSphereData(markerSegments, markerRings)

	gl.GenVertexArrays(1, &r.markerVAO)
	gl.BindVertexArray(r.markerVAO)

	r.markerPositions = staticBuffer(gl.ARRAY_BUFFER, 4*len(sphere.Positions), sphere.Positions)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 0, 0)

	r.markerNormals = staticBuffer(gl.ARRAY_BUFFER, 4*len(sphere.Normals), sphere.Normals)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, 0, 0)

	r.markerIndices = staticBuffer(gl.ELEMENT_ARRAY_BUFFER, 4*len(sphere.Indices), sphere.Indices)
	r.markerCount = int32(len(sphere.Indices))

	gl.BindVertexArray(r.globeVAO)
}

func staticBuffer(target uint32, size int, data any) uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(target, buf)
	gl.BufferData(target, size, gl.Ptr(data), gl.STATIC_DRAW)
	return buf
}

// AllocateVertexBuffer reserves size bytes of dynamic vertex storage.
func (r *Renderer) AllocateVertexBuffer(size int) core.VertexBuffer {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	gl.BufferData(gl.ARRAY_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	return core.VertexBuffer(buf)
}

// AllocateElementBuffer reserves size bytes of index storage in the globe
// vertex array.
func (r *Renderer) AllocateElementBuffer(size int) core.ElementBuffer {
	gl.BindVertexArray(r.globeVAO)
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, size, nil, gl.STATIC_DRAW)
	return core.ElementBuffer(buf)
}

func (r *Renderer) CopyVertexData(buf core.VertexBuffer, data []float32) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, 4*len(data), gl.Ptr(data))
}

func (r *Renderer) CopyElementData(buf core.ElementBuffer, data []uint32) {
	if len(data) == 0 {
		return
	}
	gl.BindVertexArray(r.globeVAO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(buf))
	gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, 4*len(data), gl.Ptr(data))
}

// LoadTexture decodes the image at path and uploads it with mipmaps.
func (r *Renderer) LoadTexture(path string) (core.Texture, error) {
	img, err := textures.Load(path)
	if err != nil {
		return 0, err
	}
	var driverMax int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &driverMax)
	limit := int(driverMax)
	if r.maxTextureSize > 0 && r.maxTextureSize < limit {
		limit = r.maxTextureSize
	}
	img = textures.Resize(img, limit)

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	b := img.Bounds()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)

	r.log.WithFields(logrus.Fields{
		"path":   path,
		"width":  b.Dx(),
		"height": b.Dy(),
	}).Info("Texture loaded")
	return core.Texture(tex), nil
}

// DrawElements draws an indexed triangle list from the globe vertex array.
func (r *Renderer) DrawElements(call core.DrawCall) {
	gl.UseProgram(r.program)
	gl.BindVertexArray(r.globeVAO)
	identity := mgl32.Ident4()
	gl.UniformMatrix4fv(r.uModel, 1, false, &identity[0])

	bindAttribute(0, uint32(call.Vertices), 3)
	bindAttribute(1, uint32(call.Normals), 3)
	if call.Textured {
		bindAttribute(2, uint32(call.TexCoords), 2)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, uint32(call.Texture))
		gl.Uniform1i(r.uTextured, 1)
	} else {
		gl.DisableVertexAttribArray(2)
		gl.Uniform1i(r.uTextured, 0)
	}

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(call.Indices))
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(call.Count), gl.UNSIGNED_INT, 0)
}

func bindAttribute(location, buf uint32, size int32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	gl.EnableVertexAttribArray(location)
	gl.VertexAttribPointerWithOffset(location, size, gl.FLOAT, false, 0, 0)
}

// BeginFrame clears the framebuffer.
func (r *Renderer) BeginFrame() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// EndFrame presents the frame.
func (r *Renderer) EndFrame() {
	if err := gl.GetError(); err != gl.NO_ERROR {
		r.log.WithField("code", fmt.Sprintf("0x%x", err)).Warn("OpenGL error")
	}
	r.window.SwapBuffers()
}

func (r *Renderer) SetColor(c color.RGBA) {
	gl.UseProgram(r.program)
	gl.Uniform4f(r.uColor, float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
}

func (r *Renderer) SetWireframe(on bool) {
	if on {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

// DrawMarker draws a lit sphere of the given radius.
func (r *Renderer) DrawMarker(center mgl32.Vec3, radius float32, c color.RGBA) {
	r.SetColor(c)
	model := mgl32.Translate3D(center.X(), center.Y(), center.Z()).Mul4(mgl32.Scale3D(radius, radius, radius))
	gl.UniformMatrix4fv(r.uModel, 1, false, &model[0])
	gl.Uniform1i(r.uTextured, 0)

	gl.BindVertexArray(r.markerVAO)
	gl.DrawElementsWithOffset(gl.TRIANGLES, r.markerCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(r.globeVAO)
}

// ShouldClose reports whether the user asked to close the window.
func (r *Renderer) ShouldClose() bool {
	return r.window.ShouldClose()
}

// PollEvents processes window events.
func (r *Renderer) PollEvents() {
	glfw.PollEvents()
}

// Close releases GL objects, destroys the window and terminates GLFW.
func (r *Renderer) Close() {
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	buffers := []uint32{r.markerPositions, r.markerNormals, r.markerIndices}
	gl.DeleteBuffers(int32(len(buffers)), &buffers[0])
	vaos := []uint32{r.globeVAO, r.markerVAO}
	gl.DeleteVertexArrays(int32(len(vaos)), &vaos[0])
	r.window.Destroy()
	glfw.Terminate()
}
