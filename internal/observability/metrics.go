package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// conversion pipeline.
type Metrics struct {
	RecordsDecoded   prometheus.Counter
	FetchBytes       prometheus.Counter
	RowsWritten      prometheus.Counter
	VariablesMissing prometheus.Counter

	ConversionRunning prometheus.Gauge
	StageDuration     *prometheus.HistogramVec // label: stage={fetch,normalize,tabularize,index,write}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsDecoded,
		m.FetchBytes,
		m.RowsWritten,
		m.VariablesMissing,
		m.ConversionRunning,
		m.StageDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can construct pipelines repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "grib_records_decoded_total",
			Help:      "Total GRIB2 records decoded from the source.",
		}),
		FetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "fetch_bytes_total",
			Help:      "Total bytes downloaded from the upstream archive.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "rows_written_total",
			Help:      "Total table rows handed to sinks.",
		}),
		VariablesMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridcast",
			Name:      "variables_missing_total",
			Help:      "Requested variables absent from the source inventory.",
		}),
		ConversionRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridcast",
			Name:      "conversion_running",
			Help:      "1 while a conversion is in flight, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gridcast",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
	}
}
