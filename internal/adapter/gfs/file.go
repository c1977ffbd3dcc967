package gfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/nilsmagnus/grib/griblib"

	"github.com/couchcryptid/gridcast/internal/domain"
	"github.com/couchcryptid/gridcast/internal/observability"
)

// FileSource implements pipeline.Fetcher over a GRIB2 file already on disk,
// e.g. one downloaded earlier through the NOMADS filter endpoint. Messages
// are matched against the converter's variable set by their GRIB2 product
// identification; everything else in the file is ignored.
type FileSource struct {
	path    string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFileSource creates a fetcher reading from the given GRIB2 file.
func NewFileSource(path string, logger *slog.Logger, metrics *observability.Metrics) *FileSource {
	return &FileSource{path: path, logger: logger, metrics: metrics}
}

// Fetch decodes the file. The request only contributes metadata; the file
// contents determine the grid.
func (s *FileSource) Fetch(_ context.Context, _ domain.Request) (*domain.Grid, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDataUnavailable, s.path)
		}
		return nil, fmt.Errorf("open grib file: %w", err)
	}
	defer f.Close()

	msgs, err := griblib.ReadMessages(f)
	if err != nil {
		return nil, fmt.Errorf("read grib file %s: %w", s.path, err)
	}

	grid := &domain.Grid{Layers: make(map[string][]float64)}
	for _, msg := range msgs {
		layer, ok := classifyMessage(msg)
		if !ok {
			continue
		}
		if _, dup := grid.Layers[layer]; dup {
			continue
		}

		lats, lons, values, err := decodeMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("decode %s from %s: %w", layer, s.path, err)
		}
		if grid.Lats == nil {
			grid.Lats, grid.Lons = lats, lons
		} else if len(lats) != len(grid.Lats) || len(lons) != len(grid.Lons) {
			return nil, fmt.Errorf("layer %s is on a %dx%d grid, expected %dx%d",
				layer, len(lats), len(lons), len(grid.Lats), len(grid.Lons))
		}
		grid.Layers[layer] = values
		s.metrics.RecordsDecoded.Inc()
	}

	if len(grid.Layers) == 0 {
		return nil, fmt.Errorf("%w: no recognized records in %s", domain.ErrDataUnavailable, s.path)
	}
	s.logger.Info("grib file decoded", "path", s.path, "layers", len(grid.Layers))
	return grid, nil
}
