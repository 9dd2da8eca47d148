package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "jazz_events"

// Metrics holds the Prometheus counters, histograms, and gauges for one run.
//
// The job is a short-lived batch process, so metrics live in a private
// registry and are written once per run to a node_exporter textfile instead of
// being served over HTTP
type Metrics struct {
	registry *prometheus.Registry

	// Calendar fetch and extraction
	DaysFetched        prometheus.Counter
	EmptyDays          prometheus.Counter
	BlocksFound        prometheus.Counter
	ExtractionFailures *prometheus.CounterVec // labels: rule
	EventsExtracted    prometheus.Gauge

	// Artist search and enrichment
	SearchRequests *prometheus.CounterVec // labels: outcome={success,error}
	SearchCache    *prometheus.CounterVec // labels: result={hit,miss}
	SearchDuration prometheus.Histogram
	EventsEnriched prometheus.Gauge
	EventsPopular  prometheus.Gauge

	// Run-level
	PhaseDuration *prometheus.GaugeVec // labels: phase={fetch,extract,enrich,render}
	LastSuccess   prometheus.Gauge
}

// NewMetrics creates all run metrics in a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DaysFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_days_fetched_total",
			Help:      "Calendar day payloads fetched from the venue.",
		}),
		EmptyDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_empty_days_total",
			Help:      "Day payloads that contained no event blocks.",
		}),
		BlocksFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_blocks_total",
			Help:      "Event blocks located in day payloads.",
		}),
		ExtractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Event blocks dropped because a field rule did not match.",
		}, []string{"rule"}),
		EventsExtracted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_extracted",
			Help:      "Events extracted in the last run.",
		}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artist_search_requests_total",
			Help:      "Artist search API requests by outcome.",
		}, []string{"outcome"}),
		SearchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artist_search_cache_total",
			Help:      "Artist search cache lookups by result.",
		}, []string{"result"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artist_search_duration_seconds",
			Help:      "Artist search API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		EventsEnriched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_enriched",
			Help:      "Events with a confident artist match in the last run.",
		}),
		EventsPopular: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_popular",
			Help:      "Events rendered with the POPULAR badge in the last run.",
		}),
		PhaseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall time spent in each phase of the last run.",
		}, []string{"phase"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote the page.",
		}),
	}

	m.registry.MustRegister(
		m.DaysFetched,
		m.EmptyDays,
		m.BlocksFound,
		m.ExtractionFailures,
		m.EventsExtracted,
		m.SearchRequests,
		m.SearchCache,
		m.SearchDuration,
		m.EventsEnriched,
		m.EventsPopular,
		m.PhaseDuration,
		m.LastSuccess,
	)

	return m
}

// Registry returns the registry holding the run metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePhase records how long a phase took
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.PhaseDuration.WithLabelValues(phase).Set(d.Seconds())
}

// WriteTextfile writes the metrics in Prometheus text format to path.
// The file is replaced atomically
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
