package domain

import (
	"fmt"
	"time"
)

// ColumnType identifies the physical type of a table column.
type ColumnType int

const (
	ColumnFloat ColumnType = iota
	ColumnString
	ColumnTimestamp
	ColumnInt
)

// Column describes one table column.
type Column struct {
	Name string
	Type ColumnType
}

// Table is a flat row-per-grid-point view of a Grid. Rows hold values keyed
// by column name; Columns fixes the output order and types. Row order
// follows the source grid's scan order but is not part of the contract.
type Table struct {
	Columns []Column
	Rows    []map[string]any
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// HasColumn reports whether the table carries a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// columnRenames maps internal GRIB short names to stable output column
// names. Layers not present in the map are dropped from the table.
var columnRenames = map[string]string{
	"t2m":   "temperature_k",
	"d2m":   "dewpoint_k",
	"r2":    "relative_humidity",
	"u10":   "wind_u_ms",
	"v10":   "wind_v_ms",
	"gust":  "wind_gust_ms",
	"sp":    "surface_pressure_pa",
	"tcc":   "cloud_cover",
	"prate": "precip_rate_kg_m2_s",
	"vis":   "visibility_m",
}

// layerOrder fixes the output column order for variable layers. Absent
// layers are skipped; they never produce placeholder columns.
var layerOrder = []string{"t2m", "d2m", "r2", "u10", "v10", "gust", "sp", "tcc", "prate", "vis"}

// Tabularize flattens every (latitude, longitude) grid point into one row,
// carrying each present variable layer as a renamed column. The row count
// always equals len(g.Lats) * len(g.Lons).
func Tabularize(g *Grid) (*Table, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("tabularize: %w", err)
	}

	cols := []Column{
		{Name: "latitude", Type: ColumnFloat},
		{Name: "longitude", Type: ColumnFloat},
	}
	present := make([]string, 0, len(layerOrder))
	for _, layer := range layerOrder {
		if _, ok := g.Layers[layer]; !ok {
			continue
		}
		present = append(present, layer)
		cols = append(cols, Column{Name: columnRenames[layer], Type: ColumnFloat})
	}

	rows := make([]map[string]any, 0, g.NumPoints())
	for i, lat := range g.Lats {
		for j, lon := range g.Lons {
			row := make(map[string]any, len(cols)+4)
			row["latitude"] = lat
			row["longitude"] = lon
			for _, layer := range present {
				row[columnRenames[layer]] = g.Layers[layer][i*len(g.Lons)+j]
			}
			rows = append(rows, row)
		}
	}

	return &Table{Columns: cols, Rows: rows}, nil
}

// CellIndexer computes a stable spatial cell identifier for a coordinate at
// a given resolution. Identical inputs always yield identical identifiers.
type CellIndexer interface {
	Cell(lat, lon float64, resolution int) (string, error)
}

// AddCellIndex computes the spatial cell for every row's coordinate and
// appends it as the h3_index column. The first indexing failure aborts the
// table.
func (t *Table) AddCellIndex(indexer CellIndexer, resolution int) error {
	for _, row := range t.Rows {
		lat := row["latitude"].(float64)
		lon := row["longitude"].(float64)
		cell, err := indexer.Cell(lat, lon, resolution)
		if err != nil {
			return fmt.Errorf("index (%g, %g) at resolution %d: %w", lat, lon, resolution, err)
		}
		row["h3_index"] = cell
	}
	t.Columns = append(t.Columns, Column{Name: "h3_index", Type: ColumnString})
	return nil
}

// AttachForecastMeta appends the forecast_time, run_time, and forecast_hour
// metadata columns, identical for every row of a single conversion.
func (t *Table) AttachForecastMeta(runTime, forecastTime time.Time, forecastHour int) {
	for _, row := range t.Rows {
		row["forecast_time"] = forecastTime
		row["run_time"] = runTime
		row["forecast_hour"] = int32(forecastHour)
	}
	t.Columns = append(t.Columns,
		Column{Name: "forecast_time", Type: ColumnTimestamp},
		Column{Name: "run_time", Type: ColumnTimestamp},
		Column{Name: "forecast_hour", Type: ColumnInt},
	)
}
