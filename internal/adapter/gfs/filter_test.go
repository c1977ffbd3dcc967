package gfs

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gridcast/internal/domain"
	"github.com/couchcryptid/gridcast/internal/observability"
)

func newTestFilterClient(filterURL string) *FilterClient {
	return NewFilterClient(filterURL, 5*time.Second, 100, slog.Default(), observability.NewMetricsForTesting())
}

func TestFilterClient_RequestURL(t *testing.T) {
	c := newTestFilterClient("https://example.com/filter.pl")

	u, err := url.Parse(c.requestURL(testRequest()))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "/gfs.20240115/12/atmos", q.Get("dir"))
	assert.Equal(t, "gfs.t12z.pgrb2.0p25.f000", q.Get("file"))
	assert.Equal(t, "on", q.Get("var_TMP"))
	assert.Equal(t, "on", q.Get("var_VIS"))
	assert.Equal(t, "on", q.Get("lev_2_m_above_ground"))
	assert.Equal(t, "on", q.Get("lev_entire_atmosphere"))
	assert.Empty(t, q.Get("var_PRMSL"), "mean sea level pressure is not selected")
}

func TestFilterClient_Fetch_MissingRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestFilterClient(srv.URL)
	_, err := c.Fetch(context.Background(), testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestFilterClient_Fetch_GarbageResponse(t *testing.T) {
	// NOMADS answers some bad requests with an HTML error page and status
	// 200; that must not come back as a grid.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>no data</html>"))
	}))
	defer srv.Close()

	c := newTestFilterClient(srv.URL)
	_, err := c.Fetch(context.Background(), testRequest())

	require.Error(t, err)
}
