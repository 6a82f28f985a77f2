package sid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Merge combines two loaded files by adding their series and writes the
// result next to the primary input (see MergeFilename). It returns the name
// of the written file.
//
// The variant combination selects the algorithm:
//   - both SuperSID: every station of a is matched by call sign in b and
//     added in place; the result keeps a's header.
//   - one SuperSID: the SID file's station is the join key; its matching row
//     of the SuperSID file is added and the result keeps the SID header.
//   - both SID: the rows are added directly, the stations are assumed to be
//     the same; the result keeps a's header.
//
// An unmatched call sign aborts the merge with ErrStationNotFound before
// either file is modified. Merged data is written raw, without the BEMA
// filter, regardless of the log type.
func Merge(a, b *File) (string, error) {
	switch {
	case a.Variant == MultiStation && b.Variant == MultiStation:
		return mergeSuperSID(a, b)
	case a.Variant == MultiStation || b.Variant == MultiStation:
		single, multi := a, b
		if a.Variant == MultiStation {
			single, multi = b, a
		}
		return mergeMixed(single, multi)
	default:
		return mergeSID(a, b)
	}
}

func mergeSuperSID(a, b *File) (string, error) {
	// Resolve all partner rows before touching a, so a failed lookup leaves
	// both files untouched.
	partners := make([][]float64, len(a.Stations))
	for i, st := range a.Stations {
		row, err := b.Series(ByCallSign(st.CallSign))
		if err != nil {
			return "", err
		}
		if len(row) != a.NumSamples() {
			return "", mismatchErr(st.CallSign, len(row), a.NumSamples())
		}
		partners[i] = row
	}
	for i := range a.Stations {
		floats.Add(a.Data[i], partners[i])
	}

	out := MergeFilename(a.Path)
	opts := WriteOptions{LogType: a.logType(), SkipFilter: true, Extended: a.TimeFormat == Extended}
	if err := a.SaveSuperSID(out, opts); err != nil {
		return "", err
	}
	return out, nil
}

func mergeMixed(single, multi *File) (string, error) {
	callSign := single.Stations[0].CallSign
	row, err := multi.Series(ByCallSign(callSign))
	if err != nil {
		return "", err
	}
	if len(row) != single.NumSamples() {
		return "", mismatchErr(callSign, len(row), single.NumSamples())
	}
	floats.Add(single.Data[0], row)

	out := MergeFilename(single.Path)
	opts := WriteOptions{LogType: single.logType(), SkipFilter: true, Extended: single.TimeFormat == Extended}
	if err := single.SaveSID(out, ByIndex(0), opts); err != nil {
		return "", err
	}
	return out, nil
}

func mergeSID(a, b *File) (string, error) {
	if b.NumSamples() != a.NumSamples() {
		return "", mismatchErr(a.Stations[0].CallSign, b.NumSamples(), a.NumSamples())
	}
	floats.Add(a.Data[0], b.Data[0])

	out := MergeFilename(a.Path)
	opts := WriteOptions{LogType: a.logType(), SkipFilter: true, Extended: a.TimeFormat == Extended}
	if err := a.SaveSID(out, ByIndex(0), opts); err != nil {
		return "", err
	}
	return out, nil
}

// logType returns the LogType header value, defaulting to raw.
func (f *File) logType() string {
	if v, ok := f.Params["logtype"]; ok && v != "" {
		return v
	}
	return LogTypeRaw
}

func mismatchErr(callSign string, got, want int) error {
	return fmt.Errorf("sid: merge %s: sample count mismatch: %d != %d", callSign, got, want)
}
