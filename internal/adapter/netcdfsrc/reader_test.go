package netcdfsrc

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/gridcast/internal/domain"
	"github.com/couchcryptid/gridcast/internal/observability"
)

func TestReader_Fetch_MissingFile(t *testing.T) {
	r := NewReader(
		filepath.Join(t.TempDir(), "absent.nc"),
		slog.Default(),
		observability.NewMetricsForTesting(),
	)

	_, err := r.Fetch(context.Background(), domain.Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestFlattenLayer(t *testing.T) {
	noWholeRead := func() (any, error) {
		return nil, errors.New("unexpected whole-variable read")
	}

	t.Run("first timestep of a time-lat-lon variable", func(t *testing.T) {
		v := [][][]float64{{{1, 2}, {3, 4}}}

		got, err := flattenLayer(v, noWholeRead, 1, 0, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4}, got)
	})

	t.Run("lat-lon variable without a time axis", func(t *testing.T) {
		// Slicing the first axis of a rank-2 variable yields one latitude
		// row; the full variable must be read instead.
		sliced := [][]int16{{10, 20}}
		whole := func() (any, error) {
			return [][]int16{{10, 20}, {30, 40}}, nil
		}

		got, err := flattenLayer(sliced, whole, 0.5, 1, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, []float64{6, 11, 16, 21}, got)
	})

	t.Run("single-latitude grid needs no reread", func(t *testing.T) {
		got, err := flattenLayer([][]float64{{1, 2, 3}}, noWholeRead, 1, 0, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, got)
	})

	t.Run("row count mismatch", func(t *testing.T) {
		whole := func() (any, error) {
			return [][]float64{{1}, {2}, {3}}, nil
		}

		_, err := flattenLayer([][]float64{{1}}, whole, 1, 0, 2, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "latitude axis")
	})

	t.Run("row length mismatch", func(t *testing.T) {
		_, err := flattenLayer([][][]float64{{{1, 2}, {3}}}, noWholeRead, 1, 0, 2, 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "longitude axis")
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := flattenLayer([]string{"x"}, noWholeRead, 1, 0, 1, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported value type")
	})
}

func TestUnpack2(t *testing.T) {
	got := unpack2([][]int16{{0, 100}, {200, -100}}, 0.01, 250)

	require.Len(t, got, 2)
	assert.InDelta(t, 250.0, got[0][0], 1e-9)
	assert.InDelta(t, 251.0, got[0][1], 1e-9)
	assert.InDelta(t, 252.0, got[1][0], 1e-9)
	assert.InDelta(t, 249.0, got[1][1], 1e-9)
}

func TestAttrFloat_NilMap(t *testing.T) {
	assert.Equal(t, 1.0, attrFloat(nil, "scale_factor", 1))
}
