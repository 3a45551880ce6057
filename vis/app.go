// Package vis drives the earthquake globe: it advances simulated time and
// the globe shape once per frame, selects the visible events and renders
// them through a Backend.
package vis

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"quakeglobe/config"
	"quakeglobe/core"
)

// DateLayout formats the simulated time of a frame.
const DateLayout = "01/02/2006 15:04"

var (
	surfaceColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	wireframeColor = color.RGBA{R: 128, G: 128, B: 255, A: 255}
)

// Backend is a rendering engine that can also frame, color and draw
// event markers.
type Backend interface {
	core.Engine
	BeginFrame()
	EndFrame()
	SetColor(c color.RGBA)
	SetWireframe(on bool)
	DrawMarker(center mgl32.Vec3, radius float32, c color.RGBA)
}

// Window is the presentation surface the frame loop polls.
type Window interface {
	ShouldClose() bool
	PollEvents()
}

// Command changes playback or presentation state. Nil fields are ignored.
// Faster and Slower step the speed after PlaySpeed is applied.
type Command struct {
	PlaySpeed     *float64
	Playing       *bool
	Spherical     *bool
	Wireframe     *bool
	Faster        bool
	Slower        bool
	TogglePlaying bool
	ToggleShape   bool
}

// Frame is the state shown by one rendered frame.
type Frame struct {
	Type      string   `json:"type"`
	Time      float64  `json:"time"`
	Date      string   `json:"date"`
	Shape     float32  `json:"shape"`
	Playing   bool     `json:"playing"`
	PlaySpeed float64  `json:"playSpeed"`
	Markers   []Marker `json:"markers"`
}

// App owns the globe, the event index and the clocks driving them.
type App struct {
	// Commands, when set, is drained at the start of every Step.
	Commands <-chan Command

	backend Backend
	globe   *core.Globe
	index   *core.EventIndex
	clock   *Playback
	morph   *core.ShapeTransition

	window      float64
	morphPeriod time.Duration
	sinceToggle time.Duration
	wireframe   bool

	observers []func(Frame)
	log       logrus.FieldLogger
}

// New builds the globe on backend and indexes events, which must be sorted
// by timestamp.
func New(backend Backend, events []core.Event, s config.Settings, log logrus.FieldLogger) (*App, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	easeFn, err := core.EaseByName(s.Globe.TransitionEase)
	if err != nil {
		return nil, err
	}

	shape := float32(s.Globe.InitialShape)
	globe, err := core.NewGlobe(backend, core.GlobeConfig{
		Slices:      s.Globe.Slices,
		Stacks:      s.Globe.Stacks,
		Shape:       shape,
		TexturePath: s.Data.TextureFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create globe: %w", err)
	}

	index := core.NewEventIndex(events)
	lo, hi := index.Span()

	a := &App{
		backend:     backend,
		globe:       globe,
		index:       index,
		clock:       NewPlayback(lo, hi, s.Playback.Speed),
		morph:       core.NewShapeTransition(shape, s.Transition(), easeFn),
		window:      s.Playback.WindowSeconds,
		morphPeriod: s.MorphPeriod(),
		wireframe:   s.Globe.Wireframe,
		log:         log,
	}
	log.WithFields(logrus.Fields{
		"events": index.Len(),
		"from":   core.SecondsToTime(lo).Format(DateLayout),
		"to":     core.SecondsToTime(hi).Format(DateLayout),
	}).Info("Event index loaded")
	return a, nil
}

func (a *App) Globe() *core.Globe { return a.globe }

func (a *App) Index() *core.EventIndex { return a.index }

// Playback returns the simulated clock. It may be adjusted between frames.
func (a *App) Playback() *Playback { return a.clock }

func (a *App) Transition() *core.ShapeTransition { return a.morph }

// OnFrame registers fn to receive every frame after it is drawn.
func (a *App) OnFrame(fn func(Frame)) {
	a.observers = append(a.observers, fn)
}

// ToggleShape morphs towards the sphere when flat or heading flat, and back
// otherwise.
func (a *App) ToggleShape() {
	a.SetSpherical(a.morph.Target() < 0.5)
}

// SetSpherical starts a morph towards the sphere or the flat map.
func (a *App) SetSpherical(on bool) {
	target := float32(0)
	if on {
		target = 1
	}
	a.morph.SetTarget(target)
	a.sinceToggle = 0
	a.log.WithField("target", target).Debug("Shape transition started")
}

// SetWireframe switches between the textured globe and the mesh view.
func (a *App) SetWireframe(on bool) { a.wireframe = on }

// Apply applies c.
func (a *App) Apply(c Command) {
	if c.PlaySpeed != nil {
		a.clock.Speed = *c.PlaySpeed
	}
	if c.Faster {
		a.clock.Faster()
	}
	if c.Slower {
		a.clock.Slower()
	}
	if c.Playing != nil {
		a.clock.Playing = *c.Playing
	}
	if c.TogglePlaying {
		a.clock.Toggle()
	}
	if c.Spherical != nil {
		a.SetSpherical(*c.Spherical)
	}
	if c.ToggleShape {
		a.ToggleShape()
	}
	if c.Wireframe != nil {
		a.SetWireframe(*c.Wireframe)
	}
}

// Advance moves simulated time and the shape transition forward by dt.
// The globe is only re-blended when the shape actually changed.
func (a *App) Advance(dt time.Duration) {
	a.clock.Advance(dt.Seconds())

	if a.morphPeriod > 0 {
		a.sinceToggle += dt
		if a.sinceToggle >= a.morphPeriod {
			a.ToggleShape()
		}
	}
	if shape, changed := a.morph.Update(dt); changed {
		a.globe.SetShape(shape)
	}
}

// Frame returns the events inside the trailing time window, placed on the
// current globe surface.
func (a *App) Frame() Frame {
	now := a.clock.Current
	f := Frame{
		Type:      "frame",
		Time:      now,
		Date:      core.SecondsToTime(now).Format(DateLayout),
		Shape:     a.globe.Shape(),
		Playing:   a.clock.Playing,
		PlaySpeed: a.clock.Speed,
		Markers:   []Marker{},
	}
	start, end := a.index.Window(now-a.window, now)
	if start > end {
		return f
	}
	f.Markers = make([]Marker, 0, end-start+1)
	for i := start; i <= end; i++ {
		f.Markers = append(f.Markers, NewMarker(i, a.index.RecordAt(i), a.globe.Position))
	}
	return f
}

// Draw renders the globe and the markers of f.
func (a *App) Draw(f Frame) {
	a.backend.BeginFrame()
	if a.wireframe {
		a.backend.SetColor(surfaceColor)
		a.globe.Draw(false)
		a.backend.SetColor(wireframeColor)
		a.backend.SetWireframe(true)
		a.globe.Draw(false)
		a.backend.SetWireframe(false)
	} else {
		a.backend.SetColor(surfaceColor)
		a.globe.Draw(true)
	}
	for _, m := range f.Markers {
		a.backend.DrawMarker(m.Position, m.Radius, m.Color)
	}
	a.backend.EndFrame()
}

// Step runs one frame: pending commands, Advance, Draw and the observers.
func (a *App) Step(dt time.Duration) Frame {
	a.drainCommands()
	a.Advance(dt)
	f := a.Frame()
	a.Draw(f)
	for _, fn := range a.observers {
		fn(f)
	}
	return f
}

func (a *App) drainCommands() {
	if a.Commands == nil {
		return
	}
	for {
		select {
		case c := <-a.Commands:
			a.Apply(c)
		default:
			return
		}
	}
}

// Run steps the app at up to fps frames per second until w closes or ctx is
// cancelled. Frame time is measured, not assumed.
func (a *App) Run(ctx context.Context, w Window, fps float64) error {
	frameTime := time.Duration(float64(time.Second) / fps)
	last := time.Now()
	lastReport := last
	frames := 0

	for !w.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.PollEvents()

		now := time.Now()
		f := a.Step(now.Sub(last))
		last = now

		frames++
		if elapsed := now.Sub(lastReport); elapsed >= time.Second {
			a.log.WithFields(logrus.Fields{
				"fps":     fmt.Sprintf("%.1f", float64(frames)/elapsed.Seconds()),
				"date":    f.Date,
				"shape":   f.Shape,
				"visible": len(f.Markers),
			}).Debug("Frame stats")
			frames = 0
			lastReport = now
		}

		if wait := frameTime - time.Since(now); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}
