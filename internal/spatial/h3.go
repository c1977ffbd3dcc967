// Package spatial assigns H3 hierarchical hexagonal grid cells to
// coordinates.
package spatial

import (
	"fmt"
	"math"

	h3 "github.com/uber/h3-go/v3"

	"github.com/couchcryptid/gridcast/internal/domain"
)

// H3Indexer implements domain.CellIndexer using Uber's H3 discrete global
// grid system. The zero value is ready to use; all state lives in the H3
// library's cell math.
type H3Indexer struct{}

// Cell returns the H3 cell identifier containing (lat, lon) at the given
// resolution, as the canonical 15-character hex string. Identical inputs
// always produce the same identifier.
func (H3Indexer) Cell(lat, lon float64, resolution int) (string, error) {
	if resolution < 0 || resolution > 15 {
		return "", fmt.Errorf("%w: h3 resolution %d not in [0, 15]", domain.ErrCoordinateRange, resolution)
	}
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return "", fmt.Errorf("%w: latitude %v not in [-90, 90]", domain.ErrCoordinateRange, lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return "", fmt.Errorf("%w: longitude %v is not a real number", domain.ErrCoordinateRange, lon)
	}

	cell := h3.FromGeo(h3.GeoCoord{Latitude: lat, Longitude: lon}, resolution)
	return h3.ToString(cell), nil
}
