// Package cli builds the command line shared by the quakeglobe binaries.
// Each binary supplies the rendering backend it links against.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"quakeglobe/config"
	"quakeglobe/core"
	"quakeglobe/quakedb"
	"quakeglobe/server"
	"quakeglobe/vis"
)

// Backend is a rendering backend that also owns its window.
type Backend interface {
	vis.Backend
	vis.Window
	Close()
}

// OpenFunc creates the backend for validated settings.
type OpenFunc func(s config.Settings, log *logrus.Logger) (Backend, error)

// Options describe one binary.
type Options struct {
	Use   string
	Short string
	Long  string
	Open  OpenFunc
	// Serve always starts the websocket feed instead of only with --serve.
	Serve bool
}

type option struct {
	name, usage, shorthand string
	key                    string // viper key; empty for flags read directly
	defaultVal             interface{}
}

func options(d config.Settings) []option {
	return []option{
		{name: "config", shorthand: "c", usage: "settings file (JSON)", defaultVal: config.DefaultFile},
		{name: "log-level", usage: "log level: debug, info, warn or error", defaultVal: "info"},
		{name: "serve", usage: "stream frames to websocket clients", defaultVal: false},
		{name: "slices", key: "globe.slices", usage: "longitude divisions of the globe grid", defaultVal: d.Globe.Slices},
		{name: "stacks", key: "globe.stacks", usage: "latitude divisions of the globe grid", defaultVal: d.Globe.Stacks},
		{name: "shape", key: "globe.initialShape", usage: "initial shape, 0 = flat map, 1 = sphere", defaultVal: d.Globe.InitialShape},
		{name: "transition", key: "globe.transitionSeconds", usage: "seconds for a complete flat to sphere morph", defaultVal: d.Globe.TransitionSeconds},
		{name: "ease", key: "globe.transitionEase", usage: "morph easing: linear, inOutQuad, inOutCubic or inOutSine", defaultVal: d.Globe.TransitionEase},
		{name: "morph-period", key: "globe.morphPeriodSeconds", usage: "toggle the shape every this many seconds, 0 disables", defaultVal: d.Globe.MorphPeriodSeconds},
		{name: "wireframe", key: "globe.wireframe", usage: "draw the mesh instead of the textured surface", defaultVal: d.Globe.Wireframe},
		{name: "speed", key: "playback.speed", usage: "simulated seconds per second", defaultVal: d.Playback.Speed},
		{name: "window", key: "playback.windowSeconds", usage: "seconds of events shown behind the current time", defaultVal: d.Playback.WindowSeconds},
		{name: "min-magnitude", key: "playback.minMagnitude", usage: "hide events below this magnitude", defaultVal: d.Playback.MinMagnitude},
		{name: "fps", key: "playback.fps", usage: "frame rate limit", defaultVal: d.Playback.FPS},
		{name: "addr", key: "server.addr", usage: "websocket feed listen address", defaultVal: d.Server.Addr},
		{name: "quakes", key: "data.quakeFile", usage: "earthquake catalog (CSV)", defaultVal: d.Data.QuakeFile},
		{name: "texture", key: "data.textureFile", usage: "surface texture", defaultVal: d.Data.TextureFile},
	}
}

func addFlags(set *pflag.FlagSet, v *viper.Viper, opts []option) {
	for _, o := range opts {
		switch def := o.defaultVal.(type) {
		case string:
			set.StringP(o.name, o.shorthand, def, o.usage)
		case bool:
			set.BoolP(o.name, o.shorthand, def, o.usage)
		case int:
			set.IntP(o.name, o.shorthand, def, o.usage)
		case float64:
			set.Float64P(o.name, o.shorthand, def, o.usage)
		default:
			panic("invalid argument type")
		}
		if o.key != "" {
			v.BindPFlag(o.key, set.Lookup(o.name))
		}
	}
}

// NewCommand returns the root command of a binary.
func NewCommand(o Options) *cobra.Command {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:           o.Use,
		Short:         o.Short,
		Long:          o.Long,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			log, err := newLogger(mustString(flags, "log-level"))
			if err != nil {
				return err
			}
			serve := o.Serve || mustBool(flags, "serve")
			return run(cmd.Context(), v, mustString(flags, "config"), serve, o.Open, log)
		},
	}
	addFlags(cmd.Flags(), v, options(config.Defaults()))
	return cmd
}

// Execute runs cmd and exits non-zero on failure.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd.Name(), err)
		os.Exit(1)
	}
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return log, nil
}

func run(ctx context.Context, v *viper.Viper, path string, serve bool, open OpenFunc, log *logrus.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	core.SetLogger(log.WithField("component", "core"))

	s, err := config.Load(v, path, log)
	if err != nil {
		return err
	}
	events, err := LoadEvents(s)
	if err != nil {
		return err
	}

	backend, err := open(s, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	app, err := vis.New(backend, events, s, log.WithField("component", "vis"))
	if err != nil {
		return err
	}

	if serve {
		hub := server.NewHub(log.WithField("component", "server"))
		app.Commands = hub.Commands()
		app.OnFrame(hub.Feed(s.Server.BroadcastHz))

		srv := &http.Server{Addr: s.Server.Addr, Handler: server.NewMux(hub)}
		go func() {
			log.WithField("addr", s.Server.Addr).Info("Websocket feed listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Websocket feed stopped")
				stop()
			}
		}()
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdown)
		}()
	}

	err = app.Run(ctx, backend, s.Playback.FPS)
	if errors.Is(err, context.Canceled) {
		log.Info("Shutting down")
		return nil
	}
	return err
}

// LoadEvents reads the catalog named by s and drops events below the
// configured magnitude.
func LoadEvents(s config.Settings) ([]core.Event, error) {
	events, err := quakedb.Load(s.Data.QuakeFile)
	if err != nil {
		return nil, err
	}
	return quakedb.Filter(events, s.Playback.MinMagnitude), nil
}

func mustString(set *pflag.FlagSet, name string) string {
	s, err := set.GetString(name)
	if err != nil {
		panic(err)
	}
	return s
}

func mustBool(set *pflag.FlagSet, name string) bool {
	b, err := set.GetBool(name)
	if err != nil {
		panic(err)
	}
	return b
}
