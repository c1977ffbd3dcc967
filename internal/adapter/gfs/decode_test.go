package gfs

import (
	"testing"

	"github.com/nilsmagnus/grib/griblib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// productMessage builds a minimal GRIB2 message carrying just the product
// identification fields classification looks at.
func productMessage(discipline, category, number, surface, value int) *griblib.Message {
	msg := &griblib.Message{}
	msg.Section0.Discipline = uint8(discipline)
	msg.Section4.ProductDefinitionTemplate.ParameterCategory = uint8(category)
	msg.Section4.ProductDefinitionTemplate.ParameterNumber = uint8(number)
	msg.Section4.ProductDefinitionTemplate.FirstSurface.Type = uint8(surface)
	msg.Section4.ProductDefinitionTemplate.FirstSurface.Value = uint32(value)
	return msg
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		layer                             string
		category, number, surface, value int
	}{
		{"t2m", 0, 0, 103, 2},
		{"d2m", 0, 6, 103, 2},
		{"r2", 1, 1, 103, 2},
		{"u10", 2, 2, 103, 10},
		{"v10", 2, 3, 103, 10},
		{"gust", 2, 22, 1, 0},
		{"sp", 3, 0, 1, 0},
		{"tcc", 6, 1, 200, 0},
		{"prate", 1, 7, 1, 0},
		{"vis", 19, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.layer, func(t *testing.T) {
			layer, ok := classifyMessage(productMessage(0, tt.category, tt.number, tt.surface, tt.value))
			require.True(t, ok)
			assert.Equal(t, tt.layer, layer)
		})
	}
}

func TestClassifyMessage_Rejected(t *testing.T) {
	t.Run("non-meteorological discipline", func(t *testing.T) {
		// Oceanographic (discipline 10) products share category numbers with
		// meteorological ones and must not match.
		_, ok := classifyMessage(productMessage(10, 0, 0, 103, 2))
		assert.False(t, ok)
	})

	t.Run("unknown product", func(t *testing.T) {
		// PRMSL: category 3, number 1, mean sea level.
		_, ok := classifyMessage(productMessage(0, 3, 1, 101, 0))
		assert.False(t, ok)
	})

	t.Run("wrong level for a known parameter", func(t *testing.T) {
		// TMP at 80 m above ground instead of 2 m.
		_, ok := classifyMessage(productMessage(0, 0, 0, 103, 80))
		assert.False(t, ok)
	})
}

// gridMessage builds a message on a 4x3 regular lat/lon grid spanning
// latitudes 50..40 (north to south) and longitudes 0..3, in micro-degrees.
func gridMessage() *griblib.Message {
	msg := &griblib.Message{}
	msg.Section3.TemplateNumber = 0
	msg.Section3.Definition = &griblib.Grid0{
		Ni:  4,
		Nj:  3,
		La1: 50_000_000,
		Lo1: 0,
		La2: 40_000_000,
		Lo2: 3_000_000,
		Di:  1_000_000,
		Dj:  5_000_000,
	}
	msg.Section7.Data = []float64{
		280.1, 280.2, 280.3, 280.4,
		281.1, 281.2, 281.3, 281.4,
		282.1, 282.2, 282.3, 282.4,
	}
	return msg
}

func TestDecodeMessage(t *testing.T) {
	lats, lons, values, err := decodeMessage(gridMessage())
	require.NoError(t, err)

	assert.Equal(t, []float64{50, 45, 40}, lats, "latitudes scan north to south")
	assert.Equal(t, []float64{0, 1, 2, 3}, lons)
	require.Len(t, values, 12)
	assert.Equal(t, 280.1, values[0])
	assert.Equal(t, 282.4, values[11])
}

func TestDecodeMessage_Errors(t *testing.T) {
	t.Run("value count mismatch", func(t *testing.T) {
		msg := gridMessage()
		msg.Section7.Data = msg.Section7.Data[:11]

		_, _, _, err := decodeMessage(msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "11 values")
	})

	t.Run("unsupported grid template", func(t *testing.T) {
		msg := gridMessage()
		msg.Section3.Definition = nil
		msg.Section3.TemplateNumber = 30

		_, _, _, err := decodeMessage(msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "grid template 30")
	})

	t.Run("degenerate grid", func(t *testing.T) {
		msg := gridMessage()
		msg.Section3.Definition = &griblib.Grid0{Ni: 0, Nj: 3}

		_, _, _, err := decodeMessage(msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "degenerate grid")
	})
}
