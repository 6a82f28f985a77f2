package sid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// WriteOptions control the output layout of a write.
type WriteOptions struct {
	LogType    string // LogTypeRaw or LogTypeFiltered, empty means raw
	Extended   bool   // write fractional-second timestamps
	SkipFilter bool   // keep raw values even for a filtered log type
}

func (o WriteOptions) logType() string {
	if o.LogType == "" {
		return LogTypeRaw
	}
	return o.LogType
}

func (o WriteOptions) timeFormat() TimeFormat {
	if o.Extended {
		return Extended
	}
	return Classic
}

// headerFields is the resolved set of header fields for writing. Both
// variants share the leading fields; the trailing station identity depends
// on the requested output variant.
type headerFields struct {
	Site         string `validate:"required"`
	Contact      string
	Longitude    string `validate:"required"`
	Latitude     string `validate:"required"`
	UTCOffset    string `validate:"required"`
	TimeZone     string `validate:"required"`
	UTCStartTime string `validate:"required"`
	LogInterval  string `validate:"required"`
	LogType      string `validate:"required"`
	MonitorID    string `validate:"required"`

	// SuperSID output
	Stations    string
	Frequencies string

	// SID output
	StationID string
	Frequency string
}

var validate = validator.New()

// headerFields resolves the header fields for the requested output variant,
// alias-aware, independent of the variant the file was loaded from.
func (f *File) headerFields(variant Variant, logType string) (*headerFields, error) {
	get := func(key string) string {
		v, _ := f.Params.Get(key)
		return v
	}
	h := &headerFields{
		Site:         get("site"),
		Contact:      f.Params["contact"],
		Longitude:    f.Params["longitude"],
		Latitude:     f.Params["latitude"],
		UTCOffset:    f.Params["utc_offset"],
		TimeZone:     get("time_zone"),
		UTCStartTime: f.Params["utc_starttime"],
		LogInterval:  get("log_interval"),
		LogType:      logType,
		MonitorID:    get("monitor_id"),
	}

	if err := validate.Struct(h); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeaderField, strings.ToLower(verrs[0].Field()))
		}
		return nil, err
	}

	switch variant {
	case MultiStation:
		h.Stations = f.Params["stations"]
		h.Frequencies = f.Params["frequencies"]
		if h.Stations == "" {
			return nil, fmt.Errorf("%w: stations", ErrMissingHeaderField)
		}
		if h.Frequencies == "" {
			return nil, fmt.Errorf("%w: frequencies", ErrMissingHeaderField)
		}
	default:
		h.StationID = f.Params["stationid"]
		h.Frequency = f.Params["frequency"]
		if h.StationID == "" {
			return nil, fmt.Errorf("%w: stationid", ErrMissingHeaderField)
		}
		if h.Frequency == "" {
			return nil, fmt.Errorf("%w: frequency", ErrMissingHeaderField)
		}
	}

	return h, nil
}

// write renders the header block. The field order is fixed and identical for
// both variants up to the station identity.
func (h *headerFields) write(w io.Writer, variant Variant) {
	fmt.Fprintf(w, "# Site = %s\n", h.Site)
	if h.Contact != "" {
		fmt.Fprintf(w, "# Contact = %s\n", h.Contact)
	}
	fmt.Fprintf(w, "# Longitude = %s\n", h.Longitude)
	fmt.Fprintf(w, "# Latitude = %s\n", h.Latitude)
	fmt.Fprintln(w, "#")
	fmt.Fprintf(w, "# UTC_Offset = %s\n", h.UTCOffset)
	fmt.Fprintf(w, "# TimeZone = %s\n", h.TimeZone)
	fmt.Fprintln(w, "#")
	fmt.Fprintf(w, "# UTC_StartTime = %s\n", h.UTCStartTime)
	fmt.Fprintf(w, "# LogInterval = %s\n", h.LogInterval)
	fmt.Fprintf(w, "# LogType = %s\n", h.LogType)
	fmt.Fprintf(w, "# MonitorID = %s\n", h.MonitorID)
	if variant == MultiStation {
		fmt.Fprintf(w, "# Stations = %s\n", h.Stations)
		fmt.Fprintf(w, "# Frequencies = %s\n", h.Frequencies)
	} else {
		fmt.Fprintf(w, "# StationID = %s\n", h.StationID)
		fmt.Fprintf(w, "# Frequency = %s\n", h.Frequency)
	}
}

// WriteSID writes one station's series in SID format, one
// "timestamp, value" line per sample. Writing a station of a SuperSID file
// injects its stationid/frequency into the parameters so the SID header is
// complete.
func (f *File) WriteSID(w io.Writer, ref StationRef, opts WriteOptions) error {
	i, err := f.StationIndex(ref)
	if err != nil {
		return err
	}
	if f.Variant == MultiStation {
		f.Params["stationid"] = f.Stations[i].CallSign
		f.Params["frequency"] = f.Stations[i].Frequency
	}

	h, err := f.headerFields(SingleStation, opts.logType())
	if err != nil {
		return err
	}

	buf := f.Data[i]
	if opts.logType() == LogTypeFiltered && !opts.SkipFilter {
		buf = FilterBuffer(buf, f.LogInterval, DefaultBemaWing, 0)
	}

	tf := opts.timeFormat()
	bw := bufio.NewWriter(w)
	h.write(bw, SingleStation)
	for k, v := range buf {
		fmt.Fprintf(bw, "%s, %.15f\n", tf.Format(f.Timestamps[k]), v)
	}
	return bw.Flush()
}

// WriteSuperSID writes all stations in SuperSID format: one value column per
// station, with a leading timestamp column only for extended output.
func (f *File) WriteSuperSID(w io.Writer, opts WriteOptions) error {
	h, err := f.headerFields(MultiStation, opts.logType())
	if err != nil {
		return err
	}

	rows := f.Data
	if opts.logType() == LogTypeFiltered && !opts.SkipFilter {
		rows = make([][]float64, len(f.Data))
		for i, buf := range f.Data {
			rows[i] = FilterBuffer(buf, f.LogInterval, DefaultBemaWing, 0)
		}
	}

	tf := opts.timeFormat()
	bw := bufio.NewWriter(w)
	h.write(bw, MultiStation)
	cols := make([]string, len(rows))
	for k := 0; k < f.NumSamples(); k++ {
		for j := range rows {
			cols[j] = fmt.Sprintf("%.15f", rows[j][k])
		}
		if opts.Extended {
			fmt.Fprintf(bw, "%s, %s\n", tf.Format(f.Timestamps[k]), strings.Join(cols, ", "))
		} else {
			fmt.Fprintf(bw, "%s\n", strings.Join(cols, ", "))
		}
	}
	return bw.Flush()
}

// SaveSID writes one station's series to a SID file at path.
func (f *File) SaveSID(path string, ref StationRef, opts WriteOptions) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteSID(w, ref, opts); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// SaveSuperSID writes the whole file in SuperSID format at path.
func (f *File) SaveSuperSID(path string, opts WriteOptions) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WriteSuperSID(w, opts); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
