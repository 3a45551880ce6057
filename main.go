// Command quakeglobe plays an earthquake catalog on a globe that morphs
// between a flat map and a sphere, in an OpenGL window.
package main

import (
	"runtime"

	"github.com/sirupsen/logrus"

	"quakeglobe/cli"
	"quakeglobe/config"
	"quakeglobe/rendering/opengl"
)

func init() {
	// GLFW and OpenGL calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	cli.Execute(cli.NewCommand(cli.Options{
		Use:   "quakeglobe",
		Short: "Earthquake visualization on a morphing globe",
		Long: `quakeglobe replays an earthquake catalog over time. Events inside the
trailing time window are drawn as markers sized and colored by magnitude on a
textured globe that morphs between an equirectangular map and a sphere.

Settings are read from settings.json (or --config), QUAKEGLOBE_* environment
variables such as QUAKEGLOBE_GLOBE_SLICES, and the flags below.`,
		Open: func(s config.Settings, log *logrus.Logger) (cli.Backend, error) {
			r, err := opengl.New(opengl.Config{
				Width:  s.Window.Width,
				Height: s.Window.Height,
				Title:  s.Window.Title,
				VSync:  true,
			}, log.WithField("component", "opengl"))
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}))
}
