package domain

import "errors"

var (
	// ErrDataUnavailable indicates the upstream archive has no file matching
	// the requested date, cycle, and forecast hour. It is surfaced as-is; the
	// converter never retries.
	ErrDataUnavailable = errors.New("upstream data unavailable")

	// ErrCoordinateRange indicates a latitude, longitude, or resolution
	// outside its valid range during spatial indexing.
	ErrCoordinateRange = errors.New("coordinate out of range")
)
