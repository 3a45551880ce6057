package quakedb

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quakeglobe/core"
)

const usgsSample = `time,latitude,longitude,depth,mag,magType,place
2011-03-11T05:46:24.120Z,38.297,142.373,29,9.1,mww,"near the east coast of Honshu, Japan"
2010-02-27T06:34:11.530Z,-36.122,-72.898,22.9,8.8,mww,"offshore Bio-Bio, Chile"
2004-12-26T00:58:53.450Z,3.295,95.982,30,9.1,mw,"off the west coast of northern Sumatra"
2011-03-11T05:46:24.120Z,38.1,142.0,,6.0,mb,"aftershock listed after the main shock"
`

func TestReadSortsByTime(t *testing.T) {
	events, err := Read(strings.NewReader(usgsSample))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}

	wantFirst := time.Date(2004, 12, 26, 0, 58, 53, 450e6, time.UTC)
	if d := events[0].Time().Sub(wantFirst); d < -time.Microsecond || d > time.Microsecond {
		t.Errorf("first event at %v, want %v", events[0].Time(), wantFirst)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			t.Fatalf("events not sorted at %d", i)
		}
	}

	// equal timestamps keep file order
	if events[2].Magnitude != 9.1 || events[3].Magnitude != 6.0 {
		t.Errorf("stable order lost: %v then %v", events[2].Magnitude, events[3].Magnitude)
	}
	if events[3].Depth != 0 {
		t.Errorf("empty depth parsed as %v", events[3].Depth)
	}
	if events[1].Latitude != -36.122 || events[1].Longitude != -72.898 || events[1].Depth != 22.9 {
		t.Errorf("Chile event parsed as %+v", events[1])
	}
}

func TestReadFeedsEventIndex(t *testing.T) {
	events, err := Read(strings.NewReader(usgsSample))
	if err != nil {
		t.Fatal(err)
	}
	index := core.NewEventIndex(events)
	tohoku := core.TimeToSeconds(time.Date(2011, 3, 11, 12, 0, 0, 0, time.UTC))
	if got := index.IndexByTimestamp(tohoku); got != 3 {
		t.Errorf("IndexByTimestamp: got %d, want 3", got)
	}
}

func TestReadColumnOrderAndAliases(t *testing.T) {
	src := "Mag,Lon,Lat,Time\n5.5,10,20,1000\n6.5,-190,-5,2000\n"
	events, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []core.Event{
		{Timestamp: 1000, Latitude: 20, Longitude: 10, Magnitude: 5.5},
		{Timestamp: 2000, Latitude: -5, Longitude: 170, Magnitude: 6.5},
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, events[i], want[i])
		}
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"empty", "", "empty catalog"},
		{"missing columns", "time,latitude\n", "missing columns: longitude, mag"},
		{"bad time", "time,latitude,longitude,mag\nyesterday,1,2,5\n", "line 2: bad time"},
		{"bad magnitude", "time,latitude,longitude,mag\n100,1,2,big\n", `bad magnitude "big"`},
		{"short row", "time,latitude,longitude,mag\n100,1\n", "line 2: record has 2 fields"},
		{"latitude range", "time,latitude,longitude,mag\n100,95,2,5\n", "latitude 95 out of range"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("got %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quakes.csv")
	if err := os.WriteFile(path, []byte(usgsSample), 0o644); err != nil {
		t.Fatal(err)
	}
	events, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 4 {
		t.Errorf("got %d events, want 4", len(events))
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want ErrNotExist", err)
	}
}

func TestFilter(t *testing.T) {
	events := []core.Event{{Magnitude: 4}, {Magnitude: 5}, {Magnitude: 6.2}}
	if got := Filter(events, 0); len(got) != 3 {
		t.Errorf("no threshold: got %d events", len(got))
	}
	got := Filter(events, 5)
	if len(got) != 2 || got[0].Magnitude != 5 || got[1].Magnitude != 6.2 {
		t.Errorf("threshold 5: got %+v", got)
	}
}
