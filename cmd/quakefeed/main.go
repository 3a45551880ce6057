// Command quakefeed runs the visualization without a display and streams
// every frame's visible events to websocket clients on /ws.
package main

import (
	"github.com/sirupsen/logrus"

	"quakeglobe/cli"
	"quakeglobe/config"
	"quakeglobe/rendering/headless"
)

func main() {
	cli.Execute(cli.NewCommand(cli.Options{
		Use:   "quakefeed",
		Short: "Headless earthquake playback with a websocket feed",
		Serve: true,
		Open: func(s config.Settings, log *logrus.Logger) (cli.Backend, error) {
			engine := headless.New()
			// nothing is drawn, so the texture only has to be named
			engine.IgnoreMissingTextures = true
			log.WithField("addr", s.Server.Addr).Info("Running headless")
			return engine, nil
		},
	}))
}
