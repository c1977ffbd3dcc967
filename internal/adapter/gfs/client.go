package gfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/gridcast/internal/domain"
	"github.com/couchcryptid/gridcast/internal/observability"
)

// DefaultBaseURL is the public NOAA GFS archive mirror on S3. It serves the
// full pgrb2 files plus their .idx sidecars and honors byte-range requests,
// which is what lets the client download ten records instead of ~500 MB.
const DefaultBaseURL = "https://noaa-gfs-bdp-pds.s3.amazonaws.com"

// Client implements pipeline.Fetcher against the NOAA GFS archive. It reads
// the .idx inventory for the requested file, locates the converter's ten
// records, and fetches each with an HTTP Range request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an archive client. rps bounds outbound request rate;
// NOAA throttles aggressive clients.
func NewClient(baseURL string, timeout time.Duration, rps float64, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
		metrics:    metrics,
	}
}

// objectURL returns the archive URL of the GRIB2 file for a request, e.g.
// <base>/gfs.20240115/12/atmos/gfs.t12z.pgrb2.0p25.f000.
func (c *Client) objectURL(req domain.Request) string {
	return fmt.Sprintf("%s/gfs.%s/%02d/atmos/gfs.t%02dz.pgrb2.0p25.f%03d",
		c.baseURL, req.Date.Format("20060102"), req.Cycle, req.Cycle, req.ForecastHour)
}

// Fetch retrieves the requested file's inventory and the ten selected
// records. A missing file maps to domain.ErrDataUnavailable; a variable
// missing from the inventory is skipped.
func (c *Client) Fetch(ctx context.Context, req domain.Request) (*domain.Grid, error) {
	base := c.objectURL(req)

	entries, err := c.fetchInventory(ctx, base+".idx")
	if err != nil {
		return nil, err
	}

	grid := &domain.Grid{Layers: make(map[string][]float64)}
	for _, sel := range selections {
		entry, ok := findRecord(entries, sel.Param, sel.Level)
		if !ok {
			c.metrics.VariablesMissing.Inc()
			c.logger.Warn("variable missing from inventory", "param", sel.Param, "level", sel.Level)
			continue
		}

		data, err := c.fetchRange(ctx, base, entry)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %q: %w", sel.Param, sel.Level, err)
		}
		c.metrics.FetchBytes.Add(float64(len(data)))

		lats, lons, values, err := decodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s %q: %w", sel.Param, sel.Level, err)
		}
		if grid.Lats == nil {
			grid.Lats, grid.Lons = lats, lons
		} else if len(lats) != len(grid.Lats) || len(lons) != len(grid.Lons) {
			return nil, fmt.Errorf("record %s %q is on a %dx%d grid, expected %dx%d",
				sel.Param, sel.Level, len(lats), len(lons), len(grid.Lats), len(grid.Lons))
		}
		grid.Layers[sel.Layer] = values
		c.metrics.RecordsDecoded.Inc()
		c.logger.Debug("record decoded", "layer", sel.Layer, "bytes", len(data))
	}

	if len(grid.Layers) == 0 {
		return nil, fmt.Errorf("%w: no requested records in %s", domain.ErrDataUnavailable, base)
	}
	return grid, nil
}

// fetchInventory downloads and parses the .idx sidecar. A 404 means the run
// or forecast hour has not been published.
func (c *Client) fetchInventory(ctx context.Context, url string) ([]inventoryEntry, error) {
	body, err := c.get(ctx, url, "")
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseInventory(body)
}

// fetchRange downloads one record's byte extent from the GRIB2 file.
func (c *Client) fetchRange(ctx context.Context, url string, entry inventoryEntry) ([]byte, error) {
	rangeHeader := fmt.Sprintf("bytes=%d-", entry.Start)
	if entry.End > 0 {
		rangeHeader = fmt.Sprintf("bytes=%d-%d", entry.Start, entry.End)
	}
	body, err := c.get(ctx, url, rangeHeader)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (c *Client) get(ctx context.Context, url, rangeHeader string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
		return resp.Body, nil
	case http.StatusNotFound, http.StatusForbidden:
		// The S3 mirror answers 403 for keys that do not exist.
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrDataUnavailable, url, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("get %s: status %d: %s", url, resp.StatusCode, body)
	}
}
