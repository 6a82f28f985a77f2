package sid

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mholt/archiver/v3"
)

const secondsPerDay = 24 * 3600

// File is a loaded SID or SuperSID log. It owns its data matrix and
// timestamp vector exclusively; no two Files share buffers.
//
// Data holds one row per station, in header order. Timestamps has one entry
// per sample and is either generated from StartTime/LogInterval or parsed
// from the file, depending on the variant (see Read).
type File struct {
	Path        string
	Params      Params
	Variant     Variant
	Stations    []Station
	StartTime   time.Time  // UTC
	LogInterval int        // seconds between samples, > 0
	TimeFormat  TimeFormat // timestamp layout of this file

	Data       [][]float64
	Timestamps []time.Time
}

// NewFile creates an empty zero-filled file from the given header
// parameters, usually taken from a monitor configuration. The buffer is
// sized for one full day at the declared log interval and the timestamp
// vector is generated accordingly.
func NewFile(params Params) (*File, error) {
	f := &File{Params: params}
	if err := f.controlHeader(); err != nil {
		return nil, err
	}
	f.clearBuffer()
	return f, nil
}

// clearBuffer allocates (or zeroes) the data matrix for one day of samples
// and regenerates the timestamp vector.
func (f *File) clearBuffer() {
	n := secondsPerDay / f.LogInterval
	if f.Data == nil {
		f.Data = make([][]float64, len(f.Stations))
		for i := range f.Data {
			f.Data[i] = make([]float64, n)
		}
	} else {
		for _, row := range f.Data {
			for i := range row {
				row[i] = 0
			}
		}
	}
	f.generateTimestamps()
}

// NextDay resets the buffer for the following day: the data is zeroed, the
// start time advances by 24 hours and the timestamps are regenerated.
func (f *File) NextDay() {
	f.StartTime = f.StartTime.AddDate(0, 0, 1)
	f.Params["utc_starttime"] = Classic.Format(f.StartTime)
	f.clearBuffer()
}

// GenerateTimestamps returns the uniform timestamp vector
// start, start+interval, ..., start+(n-1)*interval.
// Identical inputs always yield identical vectors.
func GenerateTimestamps(start time.Time, intervalSec, n int) []time.Time {
	ts := make([]time.Time, n)
	step := time.Duration(intervalSec) * time.Second
	cur := start
	for i := range ts {
		ts[i] = cur
		cur = cur.Add(step)
	}
	return ts
}

func (f *File) generateTimestamps() {
	n := 0
	if len(f.Data) > 0 {
		n = len(f.Data[0])
	}
	f.Timestamps = GenerateTimestamps(f.StartTime, f.LogInterval, n)
}

// NumSamples returns the number of samples per station.
func (f *File) NumSamples() int {
	if len(f.Data) == 0 {
		return 0
	}
	return len(f.Data[0])
}

// StationRef identifies a station of a file, either by its row index or by
// its call sign. Callers holding richer station structures extract the call
// sign themselves.
type StationRef struct {
	byIndex  bool
	index    int
	callSign string
}

// ByIndex refers to the station at the given row index.
func ByIndex(i int) StationRef { return StationRef{byIndex: true, index: i} }

// ByCallSign refers to the station with the given call sign.
func ByCallSign(cs string) StationRef { return StationRef{callSign: cs} }

func (r StationRef) String() string {
	if r.byIndex {
		return fmt.Sprintf("#%d", r.index)
	}
	return r.callSign
}

// StationIndex resolves a station reference to a row index.
func (f *File) StationIndex(ref StationRef) (int, error) {
	if ref.byIndex {
		if ref.index < 0 || ref.index >= len(f.Stations) {
			return 0, fmt.Errorf("%w: index %d out of range [0,%d)", ErrStationNotFound, ref.index, len(f.Stations))
		}
		return ref.index, nil
	}
	for i, st := range f.Stations {
		if st.CallSign == ref.callSign {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrStationNotFound, ref.callSign)
}

// Series returns the data row of the given station.
func (f *File) Series(ref StationRef) ([]float64, error) {
	i, err := f.StationIndex(ref)
	if err != nil {
		return nil, err
	}
	return f.Data[i], nil
}

// MergeFilename derives the output name for a merge from the primary input:
// the marker ".merge" is inserted before the extension,
// e.g. /logs/home_NWC.csv -> /logs/home_NWC.merge.csv.
func MergeFilename(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)] + ".merge" + ext
}

// Compress gzips the written file at path and removes the plain file if the
// compression finishes without errors. It returns the name of the gzip file.
func Compress(path string) (string, error) {
	if filepath.Ext(path) == ".gz" {
		return path, nil
	}
	if err := archiver.CompressFile(path, path+".gz"); err != nil {
		return "", err
	}
	os.Remove(path)
	return path + ".gz", nil
}

// Compress gzips the file at f.Path.
func (f *File) Compress() error {
	path, err := Compress(f.Path)
	if err != nil {
		return err
	}
	f.Path = path
	return nil
}
