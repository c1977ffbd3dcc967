// Package parquetsink serializes tables to zstd-compressed Parquet files.
package parquetsink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/gridcast/internal/domain"
)

// writeBatchSize bounds memory held by the encoder between cancellation
// checks.
const writeBatchSize = 10000

// Writer implements pipeline.Sink, writing the table to a single Parquet
// file. The file is created (or truncated) at write time; there is no
// atomic rename, so a failure mid-write can leave a truncated file behind.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Parquet sink for the given output path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Write serializes the table. The schema is derived from the table's
// columns, so variables absent from the source never appear in the file.
func (w *Writer) Write(ctx context.Context, table *domain.Table) error {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	schema := buildSchema(table)
	pw := parquet.NewGenericWriter[map[string]any](f, schema, parquet.Compression(&parquet.Zstd))

	rows := make([]map[string]any, 0, writeBatchSize)
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if _, err := pw.Write(rows); err != nil {
			return fmt.Errorf("write rows: %w", err)
		}
		rows = rows[:0]
		return nil
	}

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			f.Close()
			return err
		}
		rows = append(rows, encodeRow(row))
		if len(rows) == writeBatchSize {
			if err := flush(); err != nil {
				f.Close()
				return err
			}
		}
	}
	if err := flush(); err != nil {
		f.Close()
		return err
	}

	if err := pw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}

	w.logger.Info("parquet file written", "path", w.path, "rows", table.NumRows(), "columns", len(table.Columns))
	return nil
}

// buildSchema maps the table's columns onto a flat Parquet group. All
// columns are required: absent variables are dropped from the schema, never
// emitted as nulls.
func buildSchema(table *domain.Table) *parquet.Schema {
	group := parquet.Group{}
	for _, col := range table.Columns {
		switch col.Type {
		case domain.ColumnString:
			group[col.Name] = parquet.String()
		case domain.ColumnTimestamp:
			group[col.Name] = parquet.Timestamp(parquet.Millisecond)
		case domain.ColumnInt:
			group[col.Name] = parquet.Int(32)
		default:
			group[col.Name] = parquet.Leaf(parquet.DoubleType)
		}
	}
	return parquet.NewSchema("weather", group)
}

// encodeRow converts domain values to the physical types the schema
// declares: timestamps become epoch milliseconds.
func encodeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for name, v := range row {
		if ts, ok := v.(time.Time); ok {
			out[name] = ts.UnixMilli()
			continue
		}
		out[name] = v
	}
	return out
}
