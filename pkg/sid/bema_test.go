package sid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// noisySeries is a deterministic test signal: a slow daily bump with sharp
// positive transients every 11 samples.
func noisySeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 2 + math.Sin(2*math.Pi*float64(i)/float64(n))
		if i%11 == 0 {
			s[i] += 5
		}
	}
	return s
}

func TestFilterBuffer_Length(t *testing.T) {
	cases := []struct {
		length, wing int
	}{
		{1, 0},
		{1, 6},
		{5, 2},
		{13, 13},
		{100, 6},
		{17280, 6},
	}
	for _, tc := range cases {
		out := FilterBuffer(noisySeries(tc.length), 5, tc.wing, 0)
		assert.Len(t, out, tc.length, "L=%d wing=%d", tc.length, tc.wing)
	}
}

func TestFilterBuffer_Empty(t *testing.T) {
	assert.Empty(t, FilterBuffer(nil, 5, 6, 0))
}

func TestFilterBuffer_FlatInput(t *testing.T) {
	raw := make([]float64, 50)
	for i := range raw {
		raw[i] = 4.2
	}
	out := FilterBuffer(raw, 5, 6, 0)
	for i, v := range out {
		assert.InDelta(t, 4.2, v, 1e-12, "index %d", i)
	}
}

func TestFilterBuffer_InputNotMutated(t *testing.T) {
	raw := noisySeries(60)
	orig := make([]float64, len(raw))
	copy(orig, raw)
	FilterBuffer(raw, 5, 6, 0)
	assert.Equal(t, orig, raw)
}

// The filter tracks the lower envelope: every output sample stays between
// the minimum and maximum of the surrounding raw window it was derived from.
func TestFilterBuffer_FloorProperty(t *testing.T) {
	raw := noisySeries(120)
	wing := 6
	out := FilterBuffer(raw, 5, wing, 0)

	for i, v := range out {
		lo, hi := i-2*wing, i+2*wing+1
		if lo < 0 {
			lo = 0
		}
		if hi > len(raw) {
			hi = len(raw)
		}
		winMin, winMax := raw[lo], raw[lo]
		for _, r := range raw[lo:hi] {
			winMin = math.Min(winMin, r)
			winMax = math.Max(winMax, r)
		}
		assert.LessOrEqual(t, v, winMax+1e-12, "index %d", i)
		assert.GreaterOrEqual(t, v, winMin-1e-12, "index %d", i)
	}
}

func TestFilterBuffer_Rotation(t *testing.T) {
	raw := noisySeries(24)
	// 1 h interval: 2 h offset rotates by 2 samples.
	plain := FilterBuffer(raw, 3600, 2, 0)
	rotated := FilterBuffer(raw, 3600, 2, 2)

	for i := range plain {
		assert.Equal(t, plain[(i+2)%len(plain)], rotated[i], "index %d", i)
	}
}

func TestFilterBuffer_ZeroWing(t *testing.T) {
	raw := noisySeries(10)
	out := FilterBuffer(raw, 5, 0, 0)
	assert.Equal(t, raw, out)
}
