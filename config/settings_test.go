package config

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.json"), quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s != Defaults() {
		t.Errorf("got %+v, want defaults %+v", s, Defaults())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeSettings(t, `{
		"globe": {"slices": 24, "stacks": 12, "initialShape": 1, "transitionEase": "inOutSine"},
		"playback": {"windowSeconds": 86400},
		"data": {"quakeFile": "other.csv"}
	}`)

	s, err := Load(NewViper(), path, quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"slices", s.Globe.Slices, 24},
		{"stacks", s.Globe.Stacks, 12},
		{"initialShape", s.Globe.InitialShape, 1.0},
		{"transitionEase", s.Globe.TransitionEase, "inOutSine"},
		{"windowSeconds", s.Playback.WindowSeconds, 86400.0},
		{"quakeFile", s.Data.QuakeFile, "other.csv"},
		{"textureFile default", s.Data.TextureFile, Defaults().Data.TextureFile},
		{"fps default", s.Playback.FPS, Defaults().Playback.FPS},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("QUAKEGLOBE_GLOBE_SLICES", "8")
	s, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.json"), quietLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Globe.Slices != 8 {
		t.Errorf("slices: got %d, want 8", s.Globe.Slices)
	}
}

func TestLoadRejectsNaNShapeFromEnvironment(t *testing.T) {
	t.Setenv("QUAKEGLOBE_GLOBE_INITIALSHAPE", "NaN")
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.json"), quietLogger())
	if !errors.Is(err, ErrInvalidSettings) || !strings.Contains(err.Error(), "globe.initialShape") {
		t.Errorf("got %v, want an invalid globe.initialShape", err)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{"malformed json", `{"globe": `, false},
		{"degenerate grid", `{"globe": {"slices": 0}}`, true},
		{"shape out of range", `{"globe": {"initialShape": 2}}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(NewViper(), writeSettings(t, tc.body), quietLogger())
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrInvalidSettings); got != tc.invalid {
				t.Errorf("errors.Is(ErrInvalidSettings) = %v, want %v (%v)", got, tc.invalid, err)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	s := Defaults()
	s.Globe.Stacks = 0
	s.Playback.FPS = 0
	s.Globe.InitialShape = math.NaN()
	s.Data.TextureFile = ""

	err := s.Validate()
	if !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("got %v, want ErrInvalidSettings", err)
	}
	for _, want := range []string{"globe.stacks", "globe.initialShape", "playback.fps", "data.textureFile"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestDurations(t *testing.T) {
	s := Defaults()
	s.Globe.TransitionSeconds = 1.5
	s.Globe.MorphPeriodSeconds = 10
	if got := s.Transition().Milliseconds(); got != 1500 {
		t.Errorf("Transition: got %dms, want 1500ms", got)
	}
	if got := s.MorphPeriod().Seconds(); got != 10 {
		t.Errorf("MorphPeriod: got %vs, want 10s", got)
	}
}
