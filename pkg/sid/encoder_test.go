package sid

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestWriteSID_HeaderOrder(t *testing.T) {
	f := readString(t, singleHeader+"1.0\n2.0\n3.0\n", ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSID(&buf, ByIndex(0), WriteOptions{}))

	lines := strings.Split(buf.String(), "\n")
	wantPrefixes := []string{
		"# Site =",
		"# Longitude =",
		"# Latitude =",
		"#",
		"# UTC_Offset =",
		"# TimeZone =",
		"#",
		"# UTC_StartTime =",
		"# LogInterval =",
		"# LogType =",
		"# MonitorID =",
		"# StationID =",
		"# Frequency =",
	}
	require.Greater(t, len(lines), len(wantPrefixes))
	for i, want := range wantPrefixes {
		assert.True(t, strings.HasPrefix(lines[i], want), "line %d: %q", i, lines[i])
	}
	assert.Equal(t, "2020-01-01 00:00:00, 1.000000000000000", lines[len(wantPrefixes)])
}

func TestWriteSID_RoundTrip(t *testing.T) {
	f := readString(t, singleHeader+"1.25\n2.5\n3.75\n", ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSID(&buf, ByIndex(0), WriteOptions{}))

	g := readString(t, buf.String(), ReadOptions{})
	assert.True(t, floats.EqualApprox(f.Data[0], g.Data[0], 1e-12))
	assert.Equal(t, f.Timestamps, g.Timestamps)
}

func TestWriteSuperSID_RoundTrip(t *testing.T) {
	f := readString(t, multiHeader+"1.0, 2.0\n1.1, 2.1\n1.2, 2.2\n", ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSuperSID(&buf, WriteOptions{}))

	g := readString(t, buf.String(), ReadOptions{})
	require.Len(t, g.Data, 2)
	for i := range f.Data {
		assert.True(t, floats.EqualApprox(f.Data[i], g.Data[i], 1e-12), "station %d", i)
	}
	assert.Equal(t, f.Timestamps, g.Timestamps)
}

func TestWriteSuperSID_ExtendedRoundTrip(t *testing.T) {
	rows := "2020-01-01 00:00:00.000000, 1.0, 2.0\n2020-01-01 00:00:05.250000, 1.1, 2.1\n"
	f := readString(t, multiHeader+rows, ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSuperSID(&buf, WriteOptions{Extended: true}))

	g := readString(t, buf.String(), ReadOptions{})
	assert.Equal(t, Extended, g.TimeFormat)
	assert.Equal(t, f.Timestamps, g.Timestamps, "stamps survive verbatim")
	for i := range f.Data {
		assert.True(t, floats.EqualApprox(f.Data[i], g.Data[i], 1e-12), "station %d", i)
	}
}

func TestWriteSID_FromSuperSID(t *testing.T) {
	f := readString(t, multiHeader+"1.0, 2.0\n1.1, 2.1\n", ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSID(&buf, ByCallSign("NAA"), WriteOptions{}))

	out := buf.String()
	assert.Contains(t, out, "# StationID = NAA\n")
	assert.Contains(t, out, "# Frequency = 24000\n")
	assert.NotContains(t, out, "# Stations =")

	g := readString(t, out, ReadOptions{})
	assert.Equal(t, SingleStation, g.Variant)
	assert.True(t, floats.EqualApprox([]float64{2.0, 2.1}, g.Data[0], 1e-12))
}

func TestWriteSID_Filtered(t *testing.T) {
	f := readString(t, singleHeader+"1.0\n9.0\n1.0\n", ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSID(&buf, ByIndex(0), WriteOptions{LogType: LogTypeFiltered}))

	g := readString(t, buf.String(), ReadOptions{})
	want := FilterBuffer(f.Data[0], f.LogInterval, DefaultBemaWing, 0)
	assert.True(t, floats.EqualApprox(want, g.Data[0], 1e-12))
	assert.Contains(t, buf.String(), "# LogType = filtered\n")
	assert.Equal(t, []float64{1.0, 9.0, 1.0}, f.Data[0], "source data untouched")
}

func TestWriteSID_SkipFilter(t *testing.T) {
	f := readString(t, singleHeader+"1.0\n9.0\n1.0\n", ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSID(&buf, ByIndex(0), WriteOptions{LogType: LogTypeFiltered, SkipFilter: true}))

	g := readString(t, buf.String(), ReadOptions{})
	assert.True(t, floats.EqualApprox(f.Data[0], g.Data[0], 1e-12))
}

func TestWriteSID_MissingField(t *testing.T) {
	f := readString(t, singleHeader+"1.0\n2.0\n3.0\n", ReadOptions{})
	delete(f.Params, "longitude")

	var buf bytes.Buffer
	err := f.WriteSID(&buf, ByIndex(0), WriteOptions{})
	assert.ErrorIs(t, err, ErrMissingHeaderField)
	assert.Contains(t, err.Error(), "longitude")
}

func TestWriteSuperSID_MissingStations(t *testing.T) {
	f := readString(t, singleHeader+"1.0\n2.0\n3.0\n", ReadOptions{})

	var buf bytes.Buffer
	err := f.WriteSuperSID(&buf, WriteOptions{})
	assert.ErrorIs(t, err, ErrMissingHeaderField)
}

func TestWriteSID_AliasResolution(t *testing.T) {
	aliased := `# Site_Name = Sanctuary
# Longitude = 2.2514
# Latitude = 48.7361
# UTC_Offset = +00:00
# Timezone = UTC
# UTC_StartTime = 2020-01-01 00:00:00
# LogInterval = 28800
# LogType = raw
# MonitorID = 42
# StationID = NWC
# Frequency = 19800
`
	f := readString(t, aliased+"1.0\n2.0\n3.0\n", ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSID(&buf, ByIndex(0), WriteOptions{}))
	assert.Contains(t, buf.String(), "# Site = Sanctuary\n")
	assert.Contains(t, buf.String(), "# TimeZone = UTC\n")
	assert.Contains(t, buf.String(), "# MonitorID = 42\n")
}

func TestWriteSID_Contact(t *testing.T) {
	content := strings.Replace(singleHeader, "# Longitude", "# Contact = ops@sanctuary.example\n# Longitude", 1)
	f := readString(t, content+"1.0\n2.0\n3.0\n", ReadOptions{})

	var buf bytes.Buffer
	require.NoError(t, f.WriteSID(&buf, ByIndex(0), WriteOptions{}))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "# Site = Sanctuary", lines[0])
	assert.Equal(t, "# Contact = ops@sanctuary.example", lines[1])
}
