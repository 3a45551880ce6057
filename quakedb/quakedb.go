// Package quakedb loads earthquake catalogs into time-sorted event slices.
//
// The expected format is the USGS catalog CSV: a header row naming at least
// the time, latitude, longitude and mag columns, in any order. A depth column
// is read when present.
package quakedb

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"quakeglobe/core"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

type columns struct {
	time, lat, lon, mag, depth int
}

// Load reads the catalog at path.
func Load(path string) ([]core.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open earthquake file: %w", err)
	}
	defer f.Close()

	events, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// Read parses a catalog and returns its events sorted by timestamp.
// Rows with equal timestamps keep their file order.
func Read(r io.Reader) ([]core.Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty catalog")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := findColumns(header)
	if err != nil {
		return nil, err
	}

	var events []core.Event
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		e, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, e)
	}

	slices.SortStableFunc(events, func(a, b core.Event) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
	return events, nil
}

// Filter returns the events with at least minMagnitude, preserving order.
func Filter(events []core.Event, minMagnitude float64) []core.Event {
	if minMagnitude <= 0 {
		return events
	}
	out := make([]core.Event, 0, len(events))
	for _, e := range events {
		if e.Magnitude >= minMagnitude {
			out = append(out, e)
		}
	}
	return out
}

func findColumns(header []string) (columns, error) {
	cols := columns{time: -1, lat: -1, lon: -1, mag: -1, depth: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "date", "datetime":
			cols.time = i
		case "latitude", "lat":
			cols.lat = i
		case "longitude", "lon", "long":
			cols.lon = i
		case "mag", "magnitude":
			cols.mag = i
		case "depth":
			cols.depth = i
		}
	}

	var missing []string
	if cols.time < 0 {
		missing = append(missing, "time")
	}
	if cols.lat < 0 {
		missing = append(missing, "latitude")
	}
	if cols.lon < 0 {
		missing = append(missing, "longitude")
	}
	if cols.mag < 0 {
		missing = append(missing, "mag")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("catalog header is missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRecord(record []string, cols columns) (core.Event, error) {
	field := func(i int) (string, error) {
		if i >= len(record) {
			return "", fmt.Errorf("record has %d fields, need column %d", len(record), i+1)
		}
		return strings.TrimSpace(record[i]), nil
	}
	number := func(i int, name string) (float64, error) {
		s, err := field(i)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("bad %s %q", name, s)
		}
		return v, nil
	}

	var e core.Event
	ts, err := field(cols.time)
	if err != nil {
		return e, err
	}
	if e.Timestamp, err = parseTime(ts); err != nil {
		return e, err
	}
	if e.Latitude, err = number(cols.lat, "latitude"); err != nil {
		return e, err
	}
	if e.Longitude, err = number(cols.lon, "longitude"); err != nil {
		return e, err
	}
	if e.Magnitude, err = number(cols.mag, "magnitude"); err != nil {
		return e, err
	}
	if cols.depth >= 0 && cols.depth < len(record) && strings.TrimSpace(record[cols.depth]) != "" {
		if e.Depth, err = number(cols.depth, "depth"); err != nil {
			return e, err
		}
	}
	if e.Latitude < -90 || e.Latitude > 90 {
		return e, fmt.Errorf("latitude %v out of range", e.Latitude)
	}
	e.Longitude = core.NormalizeLongitude(e.Longitude)
	return e, nil
}

// parseTime accepts the layouts in timeLayouts or Unix seconds.
func parseTime(s string) (float64, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.TimeToSeconds(t), nil
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	return 0, fmt.Errorf("bad time %q", s)
}
