// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcome labels
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// MetricsManager manages Prometheus metrics for engine runs. A nil manager
// is valid and records nothing.
type MetricsManager struct {
	registry *prometheus.Registry

	engineRuns       *prometheus.CounterVec
	engineDuration   *prometheus.HistogramVec
	recordsExtracted *prometheus.CounterVec
	schemasDropped   *prometheus.CounterVec
	runsInFlight     *prometheus.GaugeVec
	dispatches       *prometheus.CounterVec
}

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace            string `yaml:"namespace" json:"namespace"`
	Subsystem            string `yaml:"subsystem" json:"subsystem"`
	EnableGoMetrics      bool   `yaml:"enable_go_metrics" json:"enable_go_metrics"`
	EnableProcessMetrics bool   `yaml:"enable_process_metrics" json:"enable_process_metrics"`
}

// NewMetricsManager creates a metrics manager on its own registry, so
// several managers can coexist in one process.
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "tatooine"
	}
	if config.Subsystem == "" {
		config.Subsystem = "engine"
	}

	registry := prometheus.NewRegistry()
	if config.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}
	if config.EnableProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	factory := promauto.With(registry)
	mm := &MetricsManager{registry: registry}

	mm.engineRuns = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "runs_total",
			Help:      "Total number of schema runs by engine and outcome",
		},
		[]string{"engine", "status"},
	)

	mm.engineDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "run_duration_seconds",
			Help:      "Schema run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"engine"},
	)

	mm.recordsExtracted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "records_extracted_total",
			Help:      "Total number of records returned by engines",
		},
		[]string{"engine"},
	)

	mm.schemasDropped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "schemas_dropped_total",
			Help:      "Total number of schemas naming an unregistered engine",
		},
		[]string{"engine"},
	)

	mm.runsInFlight = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "runs_in_flight",
			Help:      "Number of schema runs currently executing",
		},
		[]string{"engine"},
	)

	mm.dispatches = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "dispatches_total",
			Help:      "Total number of dispatched batches by outcome",
		},
		[]string{"status"},
	)

	return mm
}

// RecordRunStart marks a run of engine as started
func (mm *MetricsManager) RecordRunStart(engine string) {
	if mm == nil {
		return
	}
	mm.runsInFlight.WithLabelValues(engine).Inc()
}

// RecordRun records a finished run of engine
func (mm *MetricsManager) RecordRun(engine string, failed bool, records int, duration time.Duration) {
	if mm == nil {
		return
	}
	status := StatusSuccess
	if failed {
		status = StatusFailed
	}
	mm.runsInFlight.WithLabelValues(engine).Dec()
	mm.engineRuns.WithLabelValues(engine, status).Inc()
	mm.engineDuration.WithLabelValues(engine).Observe(duration.Seconds())
	mm.recordsExtracted.WithLabelValues(engine).Add(float64(records))
}

// RecordDropped records a schema that matched no engine
func (mm *MetricsManager) RecordDropped(engine string) {
	if mm == nil {
		return
	}
	mm.schemasDropped.WithLabelValues(engine).Inc()
}

// RecordDispatch records the outcome of a whole batch
func (mm *MetricsManager) RecordDispatch(err error) {
	if mm == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	mm.dispatches.WithLabelValues(status).Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// MetricsHandler returns an HTTP handler for metrics endpoint
func (mm *MetricsManager) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{Registry: mm.registry})
}
