// Package netcdfsrc reads grids from local NetCDF files, for reprocessing
// archived model output without touching the GFS mirror. Files are expected
// to carry latitude/longitude coordinate variables and any subset of the
// converter's surface variables; only the first timestep is read.
package netcdfsrc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/gridcast/internal/domain"
	"github.com/couchcryptid/gridcast/internal/observability"
)

// layerNames is the set of variable names probed in the file, matching the
// converter's internal layer keys.
var layerNames = []string{"t2m", "d2m", "r2", "u10", "v10", "gust", "sp", "tcc", "prate", "vis"}

// Reader implements pipeline.Fetcher over a local NetCDF file.
type Reader struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReader creates a NetCDF source for the given path.
func NewReader(path string, logger *slog.Logger, metrics *observability.Metrics) *Reader {
	return &Reader{path: path, logger: logger, metrics: metrics}
}

// Fetch reads the coordinate axes and every recognized variable from the
// file. The request's date and cycle are trusted as supplied; the file is
// the authority on grid geometry.
func (r *Reader) Fetch(ctx context.Context, req domain.Request) (*domain.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nc, err := netcdf.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("netcdf file %s: %w", r.path, domain.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("open netcdf file %s: %w", r.path, err)
	}
	defer nc.Close()

	lats, err := coordValues(nc, "latitude")
	if err != nil {
		return nil, err
	}
	lons, err := coordValues(nc, "longitude")
	if err != nil {
		return nil, err
	}

	grid := &domain.Grid{Lats: lats, Lons: lons, Layers: make(map[string][]float64)}
	for _, name := range layerNames {
		vg, err := nc.GetVarGetter(name)
		if err != nil {
			r.metrics.VariablesMissing.Inc()
			r.logger.Warn("variable not in file", "variable", name)
			continue
		}
		values, err := layerValues(vg, len(lats), len(lons))
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		grid.Layers[name] = values
		r.metrics.RecordsDecoded.Inc()
	}

	if len(grid.Layers) == 0 {
		return nil, fmt.Errorf("no recognized variables in %s: %w", r.path, domain.ErrDataUnavailable)
	}

	r.logger.Info("netcdf file read",
		"path", r.path,
		"lats", len(lats),
		"lons", len(lons),
		"variables", len(grid.Layers))
	return grid, nil
}

// coordValues reads a 1-D coordinate variable as float64.
func coordValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("coordinate %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("coordinate %s: %w", name, err)
	}
	switch vals := v.(type) {
	case []float64:
		return vals, nil
	case []float32:
		out := make([]float64, len(vals))
		for i, f := range vals {
			out[i] = float64(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("coordinate %s: unsupported type %T", name, v)
	}
}

// layerValues reads a variable and flattens it to a row-major slice over
// (latitude, longitude). Variables with a leading time dimension contribute
// their first timestep; rank-2 variables are read whole. Packed int16 values
// are unscaled using the conventional scale_factor and add_offset attributes.
func layerValues(vg api.VarGetter, nLat, nLon int) ([]float64, error) {
	scale := attrFloat(vg.Attributes(), "scale_factor", 1)
	offset := attrFloat(vg.Attributes(), "add_offset", 0)

	v, err := vg.GetSlice(0, 1)
	if err != nil {
		if v, err = vg.Values(); err != nil {
			return nil, err
		}
	}
	return flattenLayer(v, vg.Values, scale, offset, nLat, nLon)
}

// flattenLayer turns a decoded variable into one row-major slice. Slicing
// the first axis of a rank-2 (latitude, longitude) variable yields a single
// latitude row rather than a timestep; when that shape cannot match the
// grid, the variable is re-read whole.
func flattenLayer(v any, readWhole func() (any, error), scale, offset float64, nLat, nLon int) ([]float64, error) {
	rows2d, err := rows2D(v, scale, offset)
	if err != nil {
		return nil, err
	}
	if len(rows2d) == 1 && nLat > 1 {
		w, err := readWhole()
		if err != nil {
			return nil, err
		}
		if rows2d, err = rows2D(w, scale, offset); err != nil {
			return nil, err
		}
	}

	if len(rows2d) != nLat {
		return nil, fmt.Errorf("row count %d does not match latitude axis %d", len(rows2d), nLat)
	}
	out := make([]float64, 0, nLat*nLon)
	for i, row := range rows2d {
		if len(row) != nLon {
			return nil, fmt.Errorf("row %d length %d does not match longitude axis %d", i, len(row), nLon)
		}
		out = append(out, row...)
	}
	return out, nil
}

// rows2D reduces a decoded value of rank 3 (time, lat, lon) or rank 2
// (lat, lon) to unscaled latitude rows.
func rows2D(v any, scale, offset float64) ([][]float64, error) {
	switch vals := v.(type) {
	case [][][]float64:
		return widen2(vals[0], scale, offset), nil
	case [][][]float32:
		return widen2(vals[0], scale, offset), nil
	case [][][]int16:
		return unpack2(vals[0], scale, offset), nil
	case [][]float64:
		return widen2(vals, scale, offset), nil
	case [][]float32:
		return widen2(vals, scale, offset), nil
	case [][]int16:
		return unpack2(vals, scale, offset), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func widen2[T float32 | float64](rows [][]T, scale, offset float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, f := range row {
			out[i][j] = float64(f)*scale + offset
		}
	}
	return out
}

func unpack2(rows [][]int16, scale, offset float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, p := range row {
			out[i][j] = float64(p)*scale + offset
		}
	}
	return out
}

// attrFloat reads a numeric attribute, tolerating the scalar and
// single-element array encodings NetCDF writers produce.
func attrFloat(attrs api.AttributeMap, name string, fallback float64) float64 {
	if attrs == nil {
		return fallback
	}
	v, ok := attrs.Get(name)
	if !ok {
		return fallback
	}
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case []float64:
		if len(val) > 0 {
			return val[0]
		}
	case []float32:
		if len(val) > 0 {
			return float64(val[0])
		}
	}
	return fallback
}
