package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid() *Grid {
	return &Grid{
		Lats: []float64{40.0, 39.75},
		Lons: []float64{-105.0, -104.75},
		Layers: map[string][]float64{
			"t2m": {280.1, 280.2, 280.3, 280.4},
			"sp":  {84000, 84100, 84200, 84300},
		},
	}
}

func TestTabularize(t *testing.T) {
	table, err := Tabularize(testGrid())
	require.NoError(t, err)

	assert.Equal(t, 4, table.NumRows(), "row count is lat points x lon points")

	wantCols := []Column{
		{Name: "latitude", Type: ColumnFloat},
		{Name: "longitude", Type: ColumnFloat},
		{Name: "temperature_k", Type: ColumnFloat},
		{Name: "surface_pressure_pa", Type: ColumnFloat},
	}
	assert.Equal(t, wantCols, table.Columns)

	// Spot-check the (39.75, -104.75) corner: layer index 1*2+1 = 3.
	var corner map[string]any
	for _, row := range table.Rows {
		if row["latitude"] == 39.75 && row["longitude"] == -104.75 {
			corner = row
		}
	}
	require.NotNil(t, corner)
	assert.Equal(t, 280.4, corner["temperature_k"])
	assert.Equal(t, 84300.0, corner["surface_pressure_pa"])
}

func TestTabularize_SelectiveRename(t *testing.T) {
	// No gust layer in the source: the table must not grow a null-filled
	// wind_gust_ms column.
	g := testGrid()
	table, err := Tabularize(g)
	require.NoError(t, err)

	assert.False(t, table.HasColumn("wind_gust_ms"))
	for _, row := range table.Rows {
		_, ok := row["wind_gust_ms"]
		assert.False(t, ok)
	}
}

func TestTabularize_AllVariables(t *testing.T) {
	g := &Grid{
		Lats:   []float64{0},
		Lons:   []float64{0},
		Layers: map[string][]float64{},
	}
	for _, layer := range layerOrder {
		g.Layers[layer] = []float64{1}
	}

	table, err := Tabularize(g)
	require.NoError(t, err)

	assert.Len(t, table.Columns, 12, "lat + lon + ten variables")
	for _, out := range columnRenames {
		assert.True(t, table.HasColumn(out), out)
	}
}

func TestTabularize_InvalidGrid(t *testing.T) {
	g := testGrid()
	g.Layers["t2m"] = g.Layers["t2m"][:3]
	_, err := Tabularize(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabularize")
}

// fixedIndexer returns a synthetic cell identifier so table tests stay
// independent of the H3 library.
type fixedIndexer struct{}

func (fixedIndexer) Cell(lat, lon float64, resolution int) (string, error) {
	return fmt.Sprintf("cell-%g-%g-%d", lat, lon, resolution), nil
}

type failingIndexer struct{ err error }

func (f failingIndexer) Cell(lat, lon float64, resolution int) (string, error) {
	return "", f.err
}

func TestTable_AddCellIndex(t *testing.T) {
	table, err := Tabularize(testGrid())
	require.NoError(t, err)

	require.NoError(t, table.AddCellIndex(fixedIndexer{}, 5))

	assert.True(t, table.HasColumn("h3_index"))
	for _, row := range table.Rows {
		want := fmt.Sprintf("cell-%g-%g-%d", row["latitude"], row["longitude"], 5)
		assert.Equal(t, want, row["h3_index"])
	}
}

func TestTable_AddCellIndex_Error(t *testing.T) {
	table, err := Tabularize(testGrid())
	require.NoError(t, err)

	indexErr := fmt.Errorf("%w: latitude 91", ErrCoordinateRange)
	err = table.AddCellIndex(failingIndexer{err: indexErr}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCoordinateRange)
	assert.False(t, table.HasColumn("h3_index"), "failed indexing must not add the column")
}

func TestTable_AttachForecastMeta(t *testing.T) {
	table, err := Tabularize(testGrid())
	require.NoError(t, err)

	req := Request{
		Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Cycle:        12,
		ForecastHour: 6,
		H3Resolution: 5,
	}
	table.AttachForecastMeta(req.RunTime(), req.ForecastTime(), req.ForecastHour)

	assert.True(t, table.HasColumn("forecast_time"))
	assert.True(t, table.HasColumn("run_time"))
	assert.True(t, table.HasColumn("forecast_hour"))

	for _, row := range table.Rows {
		runTime := row["run_time"].(time.Time)
		forecastTime := row["forecast_time"].(time.Time)
		hour := row["forecast_hour"].(int32)

		assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), runTime)
		assert.Equal(t, time.Duration(hour)*time.Hour, forecastTime.Sub(runTime))
		assert.Equal(t, time.Duration(req.Cycle)*time.Hour, runTime.Sub(req.Date))
	}
}

func TestRequest_Validate(t *testing.T) {
	valid := Request{
		Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Cycle:        6,
		ForecastHour: 24,
		H3Resolution: 5,
	}

	tests := []struct {
		name   string
		mutate func(*Request)
		wantOK bool
	}{
		{"valid", func(r *Request) {}, true},
		{"cycle 0", func(r *Request) { r.Cycle = 0 }, true},
		{"cycle 18", func(r *Request) { r.Cycle = 18 }, true},
		{"bad cycle", func(r *Request) { r.Cycle = 3 }, false},
		{"negative forecast hour", func(r *Request) { r.ForecastHour = -1 }, false},
		{"forecast hour too large", func(r *Request) { r.ForecastHour = 385 }, false},
		{"max forecast hour", func(r *Request) { r.ForecastHour = 384 }, true},
		{"resolution too large", func(r *Request) { r.H3Resolution = 16 }, false},
		{"resolution zero", func(r *Request) { r.H3Resolution = 0 }, true},
		{"zero date", func(r *Request) { r.Date = time.Time{} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
