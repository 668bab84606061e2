package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "traffic_report"

// Metrics holds the Prometheus counters, histograms, and gauges for the report service.
type Metrics struct {
	DatasetsLoaded   prometheus.Counter
	LoadErrors       *prometheus.CounterVec // labels: reason={range,empty_range,source,superseded,cancelled}
	LoadDuration     prometheus.Histogram
	RowsParsed       prometheus.Counter
	DaysPerLoad      prometheus.Histogram
	SessionReady     prometheus.Gauge
	SummaryPublished *prometheus.CounterVec // labels: outcome={success,error}

	// Source metrics.
	SourceFetches       *prometheus.CounterVec   // labels: source={dir,http}, outcome={success,error}
	SourceCache         *prometheus.CounterVec   // labels: result={hit,miss}
	SourceFetchDuration *prometheus.HistogramVec // labels: source={dir,http}

	// Report metrics.
	ReportsGenerated *prometheus.CounterVec // labels: format={pdf,xlsx}
	ReportsRejected  prometheus.Counter
	ReportDuration   prometheus.Histogram
	ChartCaptures    *prometheus.CounterVec // labels: outcome={captured,omitted}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_loaded_total",
			Help:      "Total datasets aggregated and made current.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Dataset loads that did not become current, by reason.",
		}, []string{"reason"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete fetch-parse-aggregate cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Total valid sensor rows parsed from source files.",
		}),
		DaysPerLoad: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "days_per_load",
			Help:      "Number of day files fetched per load.",
			Buckets:   []float64{1, 7, 14, 30, 61},
		}),
		SessionReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_ready",
			Help:      "1 once a dataset has been loaded, 0 before.",
		}),
		SummaryPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_published_total",
			Help:      "Dataset summary messages written to Kafka by outcome.",
		}, []string{"outcome"}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Day file fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_cache_total",
			Help:      "Day file cache lookups by result.",
		}, []string{"result"}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Day file fetch duration in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"source"}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Reports rendered by output format.",
		}, []string{"format"}),
		ReportsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_rejected_total",
			Help:      "Report requests rejected because another report was in progress.",
		}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Duration of chart capture, assembly and rendering of one report.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ChartCaptures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_captures_total",
			Help:      "Chart views captured for reports, or omitted after a capture failure.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.DatasetsLoaded,
		m.LoadErrors,
		m.LoadDuration,
		m.RowsParsed,
		m.DaysPerLoad,
		m.SessionReady,
		m.SummaryPublished,
		m.SourceFetches,
		m.SourceCache,
		m.SourceFetchDuration,
		m.ReportsGenerated,
		m.ReportsRejected,
		m.ReportDuration,
		m.ChartCaptures,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetsLoaded:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "datasets_loaded_total"}),
		LoadErrors:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "load_errors_total"}, []string{"reason"}),
		LoadDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "load_duration_seconds"}),
		RowsParsed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rows_parsed_total"}),
		DaysPerLoad:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "days_per_load"}),
		SessionReady:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "session_ready"}),
		SummaryPublished:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "summary_published_total"}, []string{"outcome"}),
		SourceFetches:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "source_fetches_total"}, []string{"source", "outcome"}),
		SourceCache:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "source_cache_total"}, []string{"result"}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "source_fetch_duration_seconds"}, []string{"source"}),
		ReportsGenerated:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "reports_generated_total"}, []string{"format"}),
		ReportsRejected:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reports_rejected_total"}),
		ReportDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "report_duration_seconds"}),
		ChartCaptures:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "chart_captures_total"}, []string{"outcome"}),
	}
}
