// Package sid provides functions for reading and writing SID and SuperSID
// amplitude log files.
//
// A SID file holds the amplitude log of a single monitored VLF station, a
// SuperSID file holds the logs of several stations sharing one timebase.
// Both consist of a "# Key = Value" comment header followed by comma
// separated data rows. The extended variant carries fractional-second
// timestamps and, for SuperSID files, a leading per-row timestamp column.
package sid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Log types found in the LogType header field.
const (
	LogTypeRaw      = "raw"
	LogTypeFiltered = "filtered"
)

// errors
var (
	// ErrNoStationIdentity is returned when a header defines neither
	// "Stations" nor "StationID".
	ErrNoStationIdentity = errors.New("sid: no station identity in header")

	// ErrStationFrequencyMismatch is returned when the Stations and
	// Frequencies header lists have different lengths.
	ErrStationFrequencyMismatch = errors.New("sid: stations and frequencies differ in length")

	// ErrStationNotFound is returned when a requested station is not part of
	// the file.
	ErrStationNotFound = errors.New("sid: station not found")

	// ErrMissingHeaderField is returned on writing when a required header
	// field is absent after alias resolution.
	ErrMissingHeaderField = errors.New("sid: missing header field")

	// ErrNoData is returned when a file contains no data rows.
	ErrNoData = errors.New("sid: no data rows")
)

// TimeFormat selects the textual timestamp layout of a file. It is carried
// by the file being processed, never kept as package state, so that files
// with different variants can be handled side by side.
type TimeFormat int

// The two timestamp layouts.
const (
	Classic  TimeFormat = iota // seconds resolution
	Extended                   // microsecond resolution
)

const (
	classicTimeLayout  = "2006-01-02 15:04:05"
	extendedTimeLayout = "2006-01-02 15:04:05.000000"
)

// Layout returns the reference time layout of the format.
func (f TimeFormat) Layout() string {
	if f == Extended {
		return extendedTimeLayout
	}
	return classicTimeLayout
}

// Parse parses a timestamp in this format. Times are UTC.
func (f TimeFormat) Parse(s string) (time.Time, error) {
	t, err := time.Parse(f.Layout(), strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("sid: parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// Format renders a timestamp in this format.
func (f TimeFormat) Format(t time.Time) string {
	return t.Format(f.Layout())
}

func (f TimeFormat) String() string {
	if f == Extended {
		return "extended"
	}
	return "classic"
}

// detectTimeFormat determines the timestamp format of the first data field,
// trying extended before classic.
func detectTimeFormat(field string) (TimeFormat, error) {
	if _, err := Extended.Parse(field); err == nil {
		return Extended, nil
	}
	if _, err := Classic.Parse(field); err == nil {
		return Classic, nil
	}
	return Classic, fmt.Errorf("sid: no usable timestamp in %q", field)
}

// Variant classifies a log file as single- or multi-station. The variant is
// determined once when the header is normalized and never changes.
type Variant int

// The two file variants.
const (
	SingleStation Variant = iota + 1 // SID file, one station
	MultiStation                     // SuperSID file, several stations
)

func (v Variant) String() string {
	if v == MultiStation {
		return "SuperSID"
	}
	return "SID"
}

// Station is one monitored VLF transmitter.
type Station struct {
	CallSign  string // e.g. NWC
	Frequency string // nominal frequency in Hz, kept as written in the header
}

// FrequencyHz parses the nominal frequency.
func (s Station) FrequencyHz() (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s.Frequency), 64)
	if err != nil {
		return 0, fmt.Errorf("sid: station %s: parse frequency: %w", s.CallSign, err)
	}
	return f, nil
}

// Params holds the raw header key/value pairs with lower-cased keys.
// Later duplicate keys overwrite earlier ones.
type Params map[string]string

// Header field aliases. The canonical name comes first.
var paramAliases = map[string][]string{
	"site":         {"site", "site_name"},
	"log_interval": {"log_interval", "loginterval"},
	"time_zone":    {"time_zone", "timezone"},
	"monitor_id":   {"monitor_id", "monitorid"},
}

// Get looks up a key, resolving known aliases canonical name first.
func (p Params) Get(key string) (string, bool) {
	keys, ok := paramAliases[key]
	if !ok {
		keys = []string{key}
	}
	for _, k := range keys {
		if v, ok := p[k]; ok {
			return v, true
		}
	}
	return "", false
}
