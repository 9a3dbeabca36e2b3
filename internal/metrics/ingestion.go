package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gitpulse"

// Ingestion holds the counters and histograms recorded by ingestion runs.
// Each instance owns a private registry so several can coexist in one
// process (tests, concurrent CLI invocations). A nil *Ingestion records
// nothing.
type Ingestion struct {
	registry *prometheus.Registry

	daysProcessed   *prometheus.CounterVec
	commitsIngested *prometheus.CounterVec
	commitsSkipped  *prometheus.CounterVec
	fetchAdvisories *prometheus.CounterVec
	runs            *prometheus.CounterVec
	dayDuration     prometheus.Histogram
}

// NewIngestion creates and registers the ingestion metrics
func NewIngestion() *Ingestion {
	m := &Ingestion{
		registry: prometheus.NewRegistry(),
		daysProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_processed_total",
			Help:      "Days processed by ingestion, by outcome.",
		}, []string{"outcome"}),
		commitsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_ingested_total",
			Help:      "Commits written to the statistics store.",
		}, []string{"repository"}),
		commitsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_skipped_total",
			Help:      "Commits skipped because they were already stored.",
		}, []string{"repository"}),
		fetchAdvisories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_advisories_total",
			Help:      "Fetches that did not complete and fell back to local history.",
		}, []string{"repository"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Analysis runs finished, by final status.",
		}, []string{"status"}),
		dayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "day_duration_seconds",
			Help:      "Wall time spent ingesting one day.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.daysProcessed,
		m.commitsIngested,
		m.commitsSkipped,
		m.fetchAdvisories,
		m.runs,
		m.dayDuration,
	)
	return m
}

// Registry exposes the private registry for export
func (m *Ingestion) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// DayFinished records one processed day
func (m *Ingestion) DayFinished(repository string, ok bool, ingested, skipped int, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "succeeded"
	if !ok {
		outcome = "failed"
	}
	m.daysProcessed.WithLabelValues(outcome).Inc()
	m.dayDuration.Observe(elapsed.Seconds())
	if ok {
		m.commitsIngested.WithLabelValues(repository).Add(float64(ingested))
		m.commitsSkipped.WithLabelValues(repository).Add(float64(skipped))
	}
}

// FetchAdvisory records a fetch that fell back to local history
func (m *Ingestion) FetchAdvisory(repository string) {
	if m == nil {
		return
	}
	m.fetchAdvisories.WithLabelValues(repository).Inc()
}

// RunFinished records the final status of a run
func (m *Ingestion) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

// WriteToFile writes the current metric values in the text exposition
// format, for node_exporter's textfile collector
func (m *Ingestion) WriteToFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
