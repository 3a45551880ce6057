// Command quakeglobe-rl is quakeglobe rendered with raylib.
package main

import (
	"github.com/sirupsen/logrus"

	"quakeglobe/cli"
	"quakeglobe/config"
	"quakeglobe/rendering/raylib"
)

func main() {
	cli.Execute(cli.NewCommand(cli.Options{
		Use:   "quakeglobe-rl",
		Short: "Earthquake visualization on a morphing globe (raylib)",
		Open: func(s config.Settings, log *logrus.Logger) (cli.Backend, error) {
			if err := raylib.CheckGrid(s.Globe.Slices, s.Globe.Stacks); err != nil {
				return nil, err
			}
			return raylib.New(raylib.Config{
				Width:  s.Window.Width,
				Height: s.Window.Height,
				Title:  s.Window.Title,
			}, log.WithField("component", "raylib")), nil
		},
	}))
}
