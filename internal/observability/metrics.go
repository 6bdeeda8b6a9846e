package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_funding"

// Metrics holds the Prometheus collectors for the funding service.
type Metrics struct {
	DatasetLoaded       prometheus.Gauge
	DatasetRecords      *prometheus.GaugeVec // labels: dataset={disasters,districts,geometry}
	LoadDuration        prometheus.Histogram
	LoadErrors          *prometheus.CounterVec // labels: dataset
	UnrecognizedRecords prometheus.Gauge

	// Query metrics.
	QueryDuration *prometheus.HistogramVec // labels: operation={records,aggregates,map,factsheet,region}
	CacheLookups  *prometheus.CounterVec   // labels: result={hit,miss}

	// Export metrics.
	Exports *prometheus.CounterVec // labels: format={csv,xlsx,pdf}, outcome={success,error}

	SnapshotsPublished prometheus.Counter
}

func newCollectors() *Metrics {
	return &Metrics{
		DatasetLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_loaded",
			Help:      "1 once the disaster dataset has loaded, 0 otherwise.",
		}),
		DatasetRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Rows held in memory per loaded dataset.",
		}, []string{"dataset"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of the startup fetch-and-parse of all resources.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Resource load failures by dataset.",
		}, []string{"dataset"}),
		UnrecognizedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unrecognized_region_records",
			Help:      "Loaded records whose region is not a state, DC or territory.",
		}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of dashboard computations by operation.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Aggregate cache lookups by result.",
		}, []string{"result"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports by format and outcome.",
		}, []string{"format", "outcome"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Region snapshot messages written to Kafka.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(
		m.DatasetLoaded,
		m.DatasetRecords,
		m.LoadDuration,
		m.LoadErrors,
		m.UnrecognizedRecords,
		m.QueryDuration,
		m.CacheLookups,
		m.Exports,
		m.SnapshotsPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}
