// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "market_structure_lab"

// Metrics holds all Prometheus metrics for the application.
// All Record methods are safe on a nil receiver.
type Metrics struct {
	// Engine metrics
	StageDuration  *prometheus.HistogramVec
	StageErrors    *prometheus.CounterVec
	BarsProcessed  prometheus.Counter
	ATRFallbacks   prometheus.Counter
	PivotsDetected *prometheus.CounterVec
	EventsDetected *prometheus.CounterVec

	// Pipeline metrics
	JobsTotal   *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	SinkWrites  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "stage_duration_seconds",
			Help:      "Feature stage execution duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"feature"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "stage_errors_total",
			Help:      "Total number of feature stage failures",
		}, []string{"feature"}),
		BarsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "bars_processed_total",
			Help:      "Total number of bars run through the engine",
		}),
		ATRFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "atr_fallbacks_total",
			Help:      "Total number of runs that computed ATR internally",
		}),
		PivotsDetected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pivots_detected_total",
			Help:      "Total number of classified pivots by kind",
		}, []string{"kind"}),
		EventsDetected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_detected_total",
			Help:      "Total number of structural events by stream",
		}, []string{"stream"}),

		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "jobs_total",
			Help:      "Total number of pipeline jobs by status",
		}, []string{"status"}),
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "job_duration_seconds",
			Help:      "Pipeline job duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"symbol"}),
		SinkWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "sink_writes_total",
			Help:      "Total number of sink writes by sink and status",
		}, []string{"sink", "status"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful pipeline job",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordStage records a stage execution.
func (m *Metrics) RecordStage(feature string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(feature).Observe(d.Seconds())
	if err != nil {
		m.StageErrors.WithLabelValues(feature).Inc()
	}
}

// RecordBars adds n processed bars.
func (m *Metrics) RecordBars(n int) {
	if m == nil {
		return
	}
	m.BarsProcessed.Add(float64(n))
}

// RecordATRFallback counts an internal ATR computation.
func (m *Metrics) RecordATRFallback() {
	if m == nil {
		return
	}
	m.ATRFallbacks.Inc()
}

// RecordPivots adds n pivots of the given kind.
func (m *Metrics) RecordPivots(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.PivotsDetected.WithLabelValues(kind).Add(float64(n))
}

// RecordEvents adds n events on the given stream.
func (m *Metrics) RecordEvents(stream string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.EventsDetected.WithLabelValues(stream).Add(float64(n))
}

// RecordJob records a finished pipeline job.
func (m *Metrics) RecordJob(symbol, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
	m.JobDuration.WithLabelValues(symbol).Observe(d.Seconds())
	if status == "success" {
		m.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordSinkWrite records a sink write.
func (m *Metrics) RecordSinkWrite(sink string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SinkWrites.WithLabelValues(sink, status).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(d.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
