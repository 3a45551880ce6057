package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ErrInvalidSettings is wrapped by every Validate failure.
var ErrInvalidSettings = errors.New("invalid settings")

// DefaultFile is the settings file read when no path is given.
const DefaultFile = "settings.json"

type Settings struct {
	Globe    GlobeSettings    `json:"globe" mapstructure:"globe"`
	Playback PlaybackSettings `json:"playback" mapstructure:"playback"`
	Window   WindowSettings   `json:"window" mapstructure:"window"`
	Server   ServerSettings   `json:"server" mapstructure:"server"`
	Data     DataSettings     `json:"data" mapstructure:"data"`
}

type GlobeSettings struct {
	Slices       int     `json:"slices" mapstructure:"slices"`
	Stacks       int     `json:"stacks" mapstructure:"stacks"`
	InitialShape float64 `json:"initialShape" mapstructure:"initialShape"`
	// Seconds for a complete flat to sphere morph.
	TransitionSeconds float64 `json:"transitionSeconds" mapstructure:"transitionSeconds"`
	TransitionEase    string  `json:"transitionEase" mapstructure:"transitionEase"`
	// Toggle between flat and sphere every MorphPeriodSeconds; 0 disables.
	MorphPeriodSeconds float64 `json:"morphPeriodSeconds" mapstructure:"morphPeriodSeconds"`
	Wireframe          bool    `json:"wireframe" mapstructure:"wireframe"`
}

type PlaybackSettings struct {
	// Simulated seconds per wall-clock second.
	Speed         float64 `json:"speed" mapstructure:"speed"`
	WindowSeconds float64 `json:"windowSeconds" mapstructure:"windowSeconds"`
	MinMagnitude  float64 `json:"minMagnitude" mapstructure:"minMagnitude"`
	FPS           float64 `json:"fps" mapstructure:"fps"`
}

type WindowSettings struct {
	Width  int    `json:"width" mapstructure:"width"`
	Height int    `json:"height" mapstructure:"height"`
	Title  string `json:"title" mapstructure:"title"`
}

type ServerSettings struct {
	Addr        string  `json:"addr" mapstructure:"addr"`
	BroadcastHz float64 `json:"broadcastHz" mapstructure:"broadcastHz"`
}

type DataSettings struct {
	TextureFile string `json:"textureFile" mapstructure:"textureFile"`
	QuakeFile   string `json:"quakeFile" mapstructure:"quakeFile"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Settings {
	return Settings{
		Globe: GlobeSettings{
			Slices:            60,
			Stacks:            30,
			InitialShape:      0,
			TransitionSeconds: 2,
			TransitionEase:    "linear",
		},
		Playback: PlaybackSettings{
			Speed:         30 * 24 * 3600,
			WindowSeconds: 365 * 24 * 3600,
			FPS:           60,
		},
		Window: WindowSettings{
			Width:  1280,
			Height: 720,
			Title:  "Earthquake Visualization",
		},
		Server: ServerSettings{
			Addr:        ":8080",
			BroadcastHz: 10,
		},
		Data: DataSettings{
			TextureFile: "data/earth.jpg",
			QuakeFile:   "data/earthquakes.csv",
		},
	}
}

// Transition returns the full morph duration.
func (s Settings) Transition() time.Duration {
	return time.Duration(s.Globe.TransitionSeconds * float64(time.Second))
}

// MorphPeriod returns the automatic morph toggle period, zero when disabled.
func (s Settings) MorphPeriod() time.Duration {
	return time.Duration(s.Globe.MorphPeriodSeconds * float64(time.Second))
}

// Validate checks the settings the visualization cannot run without.
func (s Settings) Validate() error {
	var problems []string
	if s.Globe.Slices < 1 {
		problems = append(problems, fmt.Sprintf("globe.slices must be at least 1, got %d", s.Globe.Slices))
	}
	if s.Globe.Stacks < 1 {
		problems = append(problems, fmt.Sprintf("globe.stacks must be at least 1, got %d", s.Globe.Stacks))
	}
	if math.IsNaN(s.Globe.InitialShape) || s.Globe.InitialShape < 0 || s.Globe.InitialShape > 1 {
		problems = append(problems, fmt.Sprintf("globe.initialShape must be in [0, 1], got %v", s.Globe.InitialShape))
	}
	if s.Globe.TransitionSeconds < 0 {
		problems = append(problems, "globe.transitionSeconds must not be negative")
	}
	if s.Globe.MorphPeriodSeconds < 0 {
		problems = append(problems, "globe.morphPeriodSeconds must not be negative")
	}
	if s.Playback.WindowSeconds <= 0 {
		problems = append(problems, "playback.windowSeconds must be positive")
	}
	if s.Playback.FPS <= 0 {
		problems = append(problems, "playback.fps must be positive")
	}
	if s.Data.TextureFile == "" {
		problems = append(problems, "data.textureFile is required")
	}
	if s.Data.QuakeFile == "" {
		problems = append(problems, "data.quakeFile is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// NewViper returns a viper instance carrying the defaults, reading
// QUAKEGLOBE_* environment overrides such as QUAKEGLOBE_GLOBE_SLICES.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("globe.slices", d.Globe.Slices)
	v.SetDefault("globe.stacks", d.Globe.Stacks)
	v.SetDefault("globe.initialShape", d.Globe.InitialShape)
	v.SetDefault("globe.transitionSeconds", d.Globe.TransitionSeconds)
	v.SetDefault("globe.transitionEase", d.Globe.TransitionEase)
	v.SetDefault("globe.morphPeriodSeconds", d.Globe.MorphPeriodSeconds)
	v.SetDefault("globe.wireframe", d.Globe.Wireframe)
	v.SetDefault("playback.speed", d.Playback.Speed)
	v.SetDefault("playback.windowSeconds", d.Playback.WindowSeconds)
	v.SetDefault("playback.minMagnitude", d.Playback.MinMagnitude)
	v.SetDefault("playback.fps", d.Playback.FPS)
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.broadcastHz", d.Server.BroadcastHz)
	v.SetDefault("data.textureFile", d.Data.TextureFile)
	v.SetDefault("data.quakeFile", d.Data.QuakeFile)

	v.SetEnvPrefix("quakeglobe")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (DefaultFile when empty) into v and returns the validated
// settings. A missing file is not an error: the defaults, environment and
// any flags bound to v are used instead.
func Load(v *viper.Viper, path string, log logrus.FieldLogger) (Settings, error) {
	if path == "" {
		path = DefaultFile
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error parsing %s: %w", path, err)
		}
		log.WithField("path", path).Info("No settings file found, using defaults")
	} else {
		log.WithField("path", v.ConfigFileUsed()).Info("Loaded settings")
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("error decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	log.WithFields(logrus.Fields{
		"slices":   s.Globe.Slices,
		"stacks":   s.Globe.Stacks,
		"vertices": vertexCount(s.Globe.Slices, s.Globe.Stacks),
	}).Debug("Globe resolution")
	return s, nil
}

func vertexCount(slices, stacks int) int {
	return (slices + 1) * (stacks + 1)
}
