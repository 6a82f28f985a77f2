package sid

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBemaWing is the default half-window of the BEMA filter,
// i.e. a window of 2*6+1 = 13 samples.
const DefaultBemaWing = 6

// FilterBuffer returns the BEMA filtered copy of raw. BEMA suppresses short
// transients by taking the minimum over a sliding window of 2*wing samples
// and smoothing the resulting envelope with a centered moving average of
// 2*wing+1 samples, so the output follows the lower noise floor of the
// signal. The input is not modified.
//
// utcOffset, in whole hours, circularly rotates the result by
// utcOffset*3600/intervalSec samples to align the series with local time.
//
// NaNs are not treated specially and propagate through minimum and average.
func FilterBuffer(raw []float64, intervalSec, wing, utcOffset int) []float64 {
	length := len(raw)
	if length == 0 {
		return []float64{}
	}
	if wing <= 0 {
		out := make([]float64, length)
		copy(out, raw)
		return rotate(out, utcOffset*3600/intervalSec)
	}

	// Extend the buffer by one wing on each side. The wings carry the edge
	// values, so minimum and average see flat edges.
	ext := make([]float64, length+2*wing)
	for i := 0; i < wing; i++ {
		ext[i] = raw[0]
		ext[wing+length+i] = raw[length-1]
	}
	copy(ext[wing:], raw)

	// Windowed minimum envelope over [i-wing, i+wing).
	dmin := make([]float64, len(ext))
	for i := wing; i < wing+length; i++ {
		dmin[i] = floats.Min(ext[i-wing : i+wing])
	}
	// Clamp the wings to the first and last interior minimum.
	for i := 0; i < wing; i++ {
		dmin[i] = dmin[wing]
		dmin[wing+length+i] = dmin[wing+length-1]
	}

	// Centered moving average, truncating back to the input length.
	window := 2*wing + 1
	out := make([]float64, length)
	for i := range out {
		out[i] = stat.Mean(dmin[i:i+window], nil)
	}

	return rotate(out, utcOffset*3600/intervalSec)
}

// rotate circularly shifts s left by n samples, in place.
func rotate(s []float64, n int) []float64 {
	length := len(s)
	if length == 0 {
		return s
	}
	n = ((n % length) + length) % length
	if n == 0 {
		return s
	}
	tmp := make([]float64, n)
	copy(tmp, s[:n])
	copy(s, s[n:])
	copy(s[length-n:], tmp)
	return s
}
