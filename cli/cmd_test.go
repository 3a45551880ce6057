package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"quakeglobe/config"
	"quakeglobe/rendering/headless"
)

const catalog = `time,latitude,longitude,depth,mag
1970-01-01T00:00:00Z,0,0,10,4.5
1970-01-02T00:00:00Z,10,20,10,6.0
1970-01-03T00:00:00Z,-10,-20,10,7.0
`

// closingEngine closes itself after a fixed number of frames.
type closingEngine struct {
	*headless.Engine
	frames int
	closed bool
}

func (e *closingEngine) ShouldClose() bool { return e.Frames() >= e.frames }

func (e *closingEngine) Close() { e.closed = true }

func writeFixtures(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	files := map[string]string{
		"quakes.csv": catalog,
		"earth.jpg":  "not decoded by the headless engine",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestCommandRunsUntilWindowCloses(t *testing.T) {
	dir := writeFixtures(t)
	var (
		engine *closingEngine
		opened config.Settings
	)
	cmd := NewCommand(Options{
		Use: "test",
		Open: func(s config.Settings, log *logrus.Logger) (Backend, error) {
			opened = s
			engine = &closingEngine{Engine: headless.New(), frames: 3}
			return engine, nil
		},
	})
	cmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.json"),
		"--log-level", "error",
		"--quakes", filepath.Join(dir, "quakes.csv"),
		"--texture", filepath.Join(dir, "earth.jpg"),
		"--slices", "12",
		"--stacks", "6",
		"--fps", "1000",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opened.Globe.Slices != 12 || opened.Globe.Stacks != 6 {
		t.Errorf("flags not applied: %+v", opened.Globe)
	}
	if engine.Frames() != 3 {
		t.Errorf("got %d frames, want 3", engine.Frames())
	}
	if !engine.closed {
		t.Error("backend not closed")
	}
}

func TestCommandReportsMissingCatalog(t *testing.T) {
	dir := writeFixtures(t)
	cmd := NewCommand(Options{
		Use: "test",
		Open: func(config.Settings, *logrus.Logger) (Backend, error) {
			t.Fatal("backend opened without a catalog")
			return nil, nil
		},
	})
	cmd.SetArgs([]string{
		"--config", filepath.Join(dir, "missing.json"),
		"--log-level", "error",
		"--quakes", filepath.Join(dir, "nope.csv"),
	})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "failed to open earthquake file") {
		t.Errorf("got %v", err)
	}
}

func TestCommandRejectsBadLogLevel(t *testing.T) {
	cmd := NewCommand(Options{Use: "test"})
	cmd.SetArgs([]string{"--log-level", "loud"})
	if err := cmd.Execute(); err == nil {
		t.Error("bad log level accepted")
	}
}

func TestLoadEventsFilters(t *testing.T) {
	dir := writeFixtures(t)
	s := config.Defaults()
	s.Data.QuakeFile = filepath.Join(dir, "quakes.csv")
	s.Playback.MinMagnitude = 5

	events, err := LoadEvents(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Magnitude != 6 {
		t.Errorf("got %+v", events)
	}
}
