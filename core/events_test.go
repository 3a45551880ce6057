package core_test

import (
	"testing"
	"time"

	"quakeglobe/core"
)

func eventsAt(timestamps ...float64) []core.Event {
	events := make([]core.Event, len(timestamps))
	for i, ts := range timestamps {
		events[i] = core.Event{Timestamp: ts, Latitude: float64(i), Longitude: -float64(i), Magnitude: 5}
	}
	return events
}

func TestEventIndexScenario(t *testing.T) {
	index := core.NewEventIndex(eventsAt(100, 200, 300, 400, 500))

	if got := index.IndexByTimestamp(250); got != 1 {
		t.Errorf("IndexByTimestamp(250): got %d, want 1", got)
	}
	start, end := index.Window(150, 350)
	if start != 1 || end != 2 {
		t.Errorf("Window(150, 350): got %d..%d, want 1..2", start, end)
	}
	if lo, hi := index.Span(); lo != 100 || hi != 500 {
		t.Errorf("Span: got %v..%v, want 100..500", lo, hi)
	}
	if index.Len() != 5 {
		t.Errorf("Len: got %d, want 5", index.Len())
	}
}

func TestEventIndexClampsOutOfRange(t *testing.T) {
	index := core.NewEventIndex(eventsAt(100, 200, 300, 400, 500))
	minTime := index.RecordAt(index.MinIndex()).Timestamp
	maxTime := index.RecordAt(index.MaxIndex()).Timestamp

	tests := []struct {
		name string
		t    float64
		want int
	}{
		{"before first", minTime - 1, index.MinIndex()},
		{"far before first", -1e12, 0},
		{"after last", maxTime + 1, index.MaxIndex()},
		{"far after last", 1e12, 4},
		{"exactly first", 100, 0},
		{"exactly last", 500, 4},
		{"between", 499.999, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := index.IndexByTimestamp(tc.t); got != tc.want {
				t.Errorf("IndexByTimestamp(%v): got %d, want %d", tc.t, got, tc.want)
			}
		})
	}
}

func TestIndexByTimestampReturnsLastEqual(t *testing.T) {
	events := eventsAt(10, 20, 20, 20, 30, 40, 40, 50)
	index := core.NewEventIndex(events)

	for _, e := range events {
		j := index.IndexByTimestamp(e.Timestamp)
		if index.RecordAt(j).Timestamp != e.Timestamp {
			t.Fatalf("t=%v: record %d has timestamp %v", e.Timestamp, j, index.RecordAt(j).Timestamp)
		}
		if j != index.MaxIndex() && index.RecordAt(j+1).Timestamp <= e.Timestamp {
			t.Fatalf("t=%v: record %d is not the last one at or before t", e.Timestamp, j)
		}
	}
}

func TestEventIndexWindow(t *testing.T) {
	index := core.NewEventIndex(eventsAt(100, 200, 300, 400, 500))

	tests := []struct {
		name      string
		from, to  float64
		wantStart int
		wantEnd   int
		wantEmpty bool
	}{
		{"everything", 0, 1000, 0, 4, false},
		{"single", 200, 200, 1, 1, false},
		{"inclusive bounds", 200, 400, 1, 3, false},
		{"gap", 210, 290, 0, 0, true},
		{"before all", 0, 50, 0, 0, true},
		{"after all", 600, 900, 0, 0, true},
		{"reversed", 400, 200, 0, 0, true},
		{"trailing", 450, 10000, 4, 4, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := index.Window(tc.from, tc.to)
			if tc.wantEmpty {
				if start <= end {
					t.Errorf("got %d..%d, want empty", start, end)
				}
				return
			}
			if start != tc.wantStart || end != tc.wantEnd {
				t.Errorf("got %d..%d, want %d..%d", start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestEmptyEventIndex(t *testing.T) {
	var index core.EventIndex
	if index.MinIndex() != -1 || index.MaxIndex() != -1 {
		t.Errorf("MinIndex/MaxIndex: got %d/%d, want -1/-1", index.MinIndex(), index.MaxIndex())
	}
	if got := index.IndexByTimestamp(0); got != -1 {
		t.Errorf("IndexByTimestamp: got %d, want -1", got)
	}
	if start, end := index.Window(0, 10); start <= end {
		t.Errorf("Window: got %d..%d, want empty", start, end)
	}

	index.Load(eventsAt(7))
	if index.MinIndex() != 0 || index.MaxIndex() != 0 || index.IndexByTimestamp(100) != 0 {
		t.Error("single event index does not resolve to index 0")
	}
}

func TestEventTimeConversion(t *testing.T) {
	when := time.Date(2014, time.March, 10, 5, 18, 13, 0, time.UTC)
	e := core.Event{Timestamp: core.TimeToSeconds(when)}
	if !e.Time().Equal(when) {
		t.Errorf("got %v, want %v", e.Time(), when)
	}
}
