package gfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/nilsmagnus/grib/griblib"

	"github.com/couchcryptid/gridcast/internal/domain"
	"github.com/couchcryptid/gridcast/internal/observability"
)

// DefaultFilterURL is the NOMADS server-side subsetting endpoint. One
// request returns a GRIB2 file holding only the selected variables and
// levels.
const DefaultFilterURL = "https://nomads.ncep.noaa.gov/cgi-bin/filter_gfs_0p25.pl"

// filterVars and filterLevels are the query parameters covering the
// converter's ten records. The filter endpoint names levels with
// underscores for spaces.
var (
	filterVars = []string{
		"var_TMP", "var_DPT", "var_RH", "var_UGRD", "var_VGRD",
		"var_GUST", "var_PRES", "var_TCDC", "var_PRATE", "var_VIS",
	}
	filterLevels = []string{
		"lev_2_m_above_ground", "lev_10_m_above_ground",
		"lev_surface", "lev_entire_atmosphere",
	}
)

// FilterClient implements pipeline.Fetcher against the NOMADS filter
// endpoint. The subsetting happens server-side, so a single request replaces
// the inventory walk the archive client does; the returned file still
// carries a few extra records (the filter matches variable and level
// independently), which classification discards.
type FilterClient struct {
	filterURL string
	transport *Client
}

// NewFilterClient creates a NOMADS filter fetcher. Transport concerns
// (timeout, rate limit, status mapping) are shared with the archive client.
func NewFilterClient(filterURL string, timeout time.Duration, rps float64, logger *slog.Logger, metrics *observability.Metrics) *FilterClient {
	if filterURL == "" {
		filterURL = DefaultFilterURL
	}
	return &FilterClient{
		filterURL: filterURL,
		transport: NewClient("", timeout, rps, logger, metrics),
	}
}

// requestURL builds the filter query for a request, e.g.
// <filter>?dir=%2Fgfs.20240115%2F12%2Fatmos&file=gfs.t12z.pgrb2.0p25.f000&var_TMP=on&...
func (c *FilterClient) requestURL(req domain.Request) string {
	q := url.Values{}
	q.Set("dir", fmt.Sprintf("/gfs.%s/%02d/atmos", req.Date.Format("20060102"), req.Cycle))
	q.Set("file", fmt.Sprintf("gfs.t%02dz.pgrb2.0p25.f%03d", req.Cycle, req.ForecastHour))
	for _, v := range filterVars {
		q.Set(v, "on")
	}
	for _, lev := range filterLevels {
		q.Set(lev, "on")
	}
	return c.filterURL + "?" + q.Encode()
}

// Fetch downloads the subset file and decodes every recognized message.
func (c *FilterClient) Fetch(ctx context.Context, req domain.Request) (*domain.Grid, error) {
	body, err := c.transport.get(ctx, c.requestURL(req), "")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read filter response: %w", err)
	}
	c.transport.metrics.FetchBytes.Add(float64(len(data)))

	msgs, err := griblib.ReadMessages(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode filter response: %w", err)
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
			return nil, fmt.Errorf("decode %s: %w", layer, err)
		}
		if grid.Lats == nil {
			grid.Lats, grid.Lons = lats, lons
		} else if len(lats) != len(grid.Lats) || len(lons) != len(grid.Lons) {
			return nil, fmt.Errorf("layer %s is on a %dx%d grid, expected %dx%d",
				layer, len(lats), len(lons), len(grid.Lats), len(grid.Lons))
		}
		grid.Layers[layer] = values
		c.transport.metrics.RecordsDecoded.Inc()
	}

	if len(grid.Layers) == 0 {
		return nil, fmt.Errorf("%w: no recognized records in filter response", domain.ErrDataUnavailable)
	}
	c.transport.logger.Info("filter subset decoded", "layers", len(grid.Layers), "bytes", len(data))
	return grid, nil
}
