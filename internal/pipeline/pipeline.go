// Package pipeline orchestrates the fetch-normalize-tabularize-write
// conversion.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/gridcast/internal/domain"
	"github.com/couchcryptid/gridcast/internal/observability"
)

// Fetcher retrieves the gridded dataset for a request. Implementations
// return domain.ErrDataUnavailable (possibly wrapped) when the upstream has
// no matching file.
type Fetcher interface {
	Fetch(ctx context.Context, req domain.Request) (*domain.Grid, error)
}

// Sink persists the finished table. The Parquet file sink is always
// present; additional sinks (Kafka) are optional.
type Sink interface {
	Write(ctx context.Context, table *domain.Table) error
}

// Pipeline runs one conversion: fetch, normalize longitudes, tabularize,
// attach the spatial index and forecast metadata, then write to every sink
// in order. Data flows strictly forward; any stage failure aborts the run.
type Pipeline struct {
	fetcher Fetcher
	indexer domain.CellIndexer
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
	running atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(f Fetcher, indexer domain.CellIndexer, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher: f,
		indexer: indexer,
		sinks:   sinks,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil while a conversion is in flight. The metrics
// listener uses it so schedulers can distinguish a live conversion from a
// wedged process.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("no conversion in flight")
	}
	return nil
}

// Run executes the conversion for one request. It returns the first stage
// error; completed work from earlier stages is discarded.
func (p *Pipeline) Run(ctx context.Context, req domain.Request) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	p.running.Store(true)
	p.metrics.ConversionRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.ConversionRunning.Set(0)
	}()

	p.logger.Info("conversion started",
		"date", req.Date.Format("2006-01-02"),
		"cycle", req.Cycle,
		"forecast_hour", req.ForecastHour,
		"h3_resolution", req.H3Resolution,
	)

	grid, err := runStage(ctx, p, "fetch", func(ctx context.Context) (*domain.Grid, error) {
		return p.fetcher.Fetch(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	p.logger.Info("dataset fetched",
		"latitudes", len(grid.Lats),
		"longitudes", len(grid.Lons),
		"layers", len(grid.Layers),
	)

	if _, err := runStage(ctx, p, "normalize", func(context.Context) (struct{}, error) {
		grid.NormalizeLongitudes()
		return struct{}{}, nil
	}); err != nil {
		return err
	}

	table, err := runStage(ctx, p, "tabularize", func(context.Context) (*domain.Table, error) {
		return domain.Tabularize(grid)
	})
	if err != nil {
		return err
	}

	if _, err := runStage(ctx, p, "index", func(context.Context) (struct{}, error) {
		return struct{}{}, table.AddCellIndex(p.indexer, req.H3Resolution)
	}); err != nil {
		return err
	}

	table.AttachForecastMeta(req.RunTime(), req.ForecastTime(), req.ForecastHour)

	if _, err := runStage(ctx, p, "write", func(ctx context.Context) (struct{}, error) {
		for _, sink := range p.sinks {
			if err := sink.Write(ctx, table); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	}); err != nil {
		return err
	}

	p.metrics.RowsWritten.Add(float64(table.NumRows()))
	p.logger.Info("conversion finished",
		"rows", table.NumRows(),
		"columns", len(table.Columns),
	)
	return nil
}

// runStage runs one stage, recording its duration and honoring
// cancellation between stages.
func runStage[T any](ctx context.Context, p *Pipeline, stage string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	start := time.Now()
	out, err := fn(ctx)
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		return zero, err
	}
	p.logger.Debug("stage complete", "stage", stage, "duration", time.Since(start))
	return out, nil
}
