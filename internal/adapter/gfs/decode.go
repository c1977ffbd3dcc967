package gfs

import (
	"bytes"
	"fmt"

	"github.com/nilsmagnus/grib/griblib"
)

// microDeg converts GRIB2 micro-degree coordinates to degrees.
const microDeg = 1e-6

// decodeRecord parses a byte-range chunk holding exactly one GRIB2 message
// and returns its axes and flat value array.
func decodeRecord(data []byte) (lats, lons, values []float64, err error) {
	if !bytes.HasPrefix(data, []byte("GRIB")) {
		return nil, nil, nil, fmt.Errorf("decode record: data does not start with GRIB magic")
	}
	msgs, err := griblib.ReadMessages(bytes.NewReader(data))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode record: %w", err)
	}
	if len(msgs) == 0 {
		return nil, nil, nil, fmt.Errorf("decode record: no GRIB2 message in %d bytes", len(data))
	}
	return decodeMessage(msgs[0])
}

// decodeMessage extracts the latitude/longitude axes and values from a
// GRIB2 message on a regular latitude/longitude grid (grid definition
// template 0, the only template GFS pgrb2 products use).
func decodeMessage(msg *griblib.Message) (lats, lons, values []float64, err error) {
	grid, ok := msg.Section3.Definition.(*griblib.Grid0)
	if !ok {
		return nil, nil, nil, fmt.Errorf("decode message: unsupported grid template %d", msg.Section3.TemplateNumber)
	}

	ni := int(grid.Ni)
	nj := int(grid.Nj)
	if ni <= 0 || nj <= 0 {
		return nil, nil, nil, fmt.Errorf("decode message: degenerate grid %dx%d", ni, nj)
	}

	lats = axis(float64(int32(grid.La1))*microDeg, float64(int32(grid.La2))*microDeg, float64(int32(grid.Dj))*microDeg, nj)
	lons = axis(float64(int32(grid.Lo1))*microDeg, float64(int32(grid.Lo2))*microDeg, float64(int32(grid.Di))*microDeg, ni)

	values = msg.Section7.Data
	if len(values) != ni*nj {
		return nil, nil, nil, fmt.Errorf("decode message: %d values for %dx%d grid", len(values), ni, nj)
	}
	return lats, lons, values, nil
}

// axis builds a coordinate axis from the grid header's first point, last
// point, and increment. The increment's sign follows the scan direction;
// when the header omits it, the span is divided evenly.
func axis(start, stop, step float64, n int) []float64 {
	vals := make([]float64, n)
	if n == 1 {
		vals[0] = start
		return vals
	}
	if step == 0 {
		step = (stop - start) / float64(n-1)
	}
	if stop < start && step > 0 {
		step = -step
	}
	for i := range vals {
		vals[i] = start + float64(i)*step
	}
	return vals
}
