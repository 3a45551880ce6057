package core

import (
	"math"
	"sort"
	"time"
)

// Event is a geolocated, timestamped occurrence such as an earthquake.
type Event struct {
	Timestamp float64 // seconds since the Unix epoch
	Latitude  float64 // degrees
	Longitude float64 // degrees
	Magnitude float64
	Depth     float64 // km, informational
}

// Time returns the event timestamp as a time.Time in UTC.
func (e Event) Time() time.Time {
	return SecondsToTime(e.Timestamp)
}

// SecondsToTime converts fractional Unix seconds to UTC time.
func SecondsToTime(seconds float64) time.Time {
	sec := math.Floor(seconds)
	nsec := math.Round((seconds - sec) * float64(time.Second))
	return time.Unix(int64(sec), int64(nsec)).UTC()
}

// TimeToSeconds converts a time to fractional Unix seconds.
func TimeToSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// EventIndex answers time-range queries over events sorted by timestamp.
//
// Events passed to Load must already be sorted ascending by Timestamp.
// That is not checked; unsorted input gives undefined query results.
type EventIndex struct {
	events []Event
}

// NewEventIndex returns an index over events, which must be sorted.
func NewEventIndex(events []Event) *EventIndex {
	x := &EventIndex{}
	x.Load(events)
	return x
}

// Load replaces the indexed events. The index keeps the slice; callers must
// not modify it afterwards.
func (x *EventIndex) Load(events []Event) {
	x.events = events
}

// Len returns the number of events.
func (x *EventIndex) Len() int {
	return len(x.events)
}

// MinIndex returns the index of the earliest event, or -1 when empty.
func (x *EventIndex) MinIndex() int {
	if len(x.events) == 0 {
		return -1
	}
	return 0
}

// MaxIndex returns the index of the latest event, or -1 when empty.
func (x *EventIndex) MaxIndex() int {
	return len(x.events) - 1
}

// RecordAt returns the i-th event. It panics when i is out of range.
func (x *EventIndex) RecordAt(i int) Event {
	return x.events[i]
}

// Span returns the first and last timestamps. Both are zero when empty.
func (x *EventIndex) Span() (min, max float64) {
	if len(x.events) == 0 {
		return 0, 0
	}
	return x.events[0].Timestamp, x.events[len(x.events)-1].Timestamp
}

// IndexByTimestamp returns the index of the latest event with
// Timestamp <= t. Times before the first event clamp to MinIndex and times
// after the last clamp to MaxIndex. It returns -1 when the index is empty.
func (x *EventIndex) IndexByTimestamp(t float64) int {
	n := len(x.events)
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool {
		return x.events[i].Timestamp > t
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// Window returns the inclusive index range of events with
// from <= Timestamp <= to. The range is empty when start > end.
func (x *EventIndex) Window(from, to float64) (start, end int) {
	n := len(x.events)
	if n == 0 || to < from {
		return 0, -1
	}
	start = sort.Search(n, func(i int) bool {
		return x.events[i].Timestamp >= from
	})
	end = x.IndexByTimestamp(to)
	if x.events[end].Timestamp > to {
		// to precedes the first event
		return 0, -1
	}
	return start, end
}
