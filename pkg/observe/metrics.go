// Package observe provides observability adapters for a reactive runtime:
// Prometheus metrics and OpenTelemetry spans driven by flush boundaries.
// Both plug in via pulse.WithFlushObserver, so the core runtime carries no
// dependency on either system.
package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

// MetricsConfig configures the Prometheus flush observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "pulse").
	Namespace string

	// Subsystem is the metrics subsystem (default: "runtime").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration in seconds.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus flush observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "pulse",
		Subsystem: "runtime",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a pulse.FlushObserver exporting flush activity to
// Prometheus.
//
// Metrics collected:
//   - pulse_runtime_flushes_total: Counter of completed flushes
//   - pulse_runtime_flush_duration_seconds: Histogram of flush wall time
//   - pulse_runtime_flush_iterations: Histogram of iterations per flush
//   - pulse_runtime_effect_runs_total: Counter of effect runs by phase
//   - pulse_runtime_effect_errors_total: Counter of isolated effect failures
//   - pulse_runtime_flushes_in_progress: Gauge of in-flight flushes
//
// Example:
//
//	m := observe.NewMetrics(observe.WithNamespace("myapp"))
//	rt := pulse.NewRuntime(pulse.WithFlushObserver(m))
//
//	http.Handle("/metrics", promhttp.Handler())
type Metrics struct {
	flushesTotal      prometheus.Counter
	flushDuration     prometheus.Histogram
	flushIterations   prometheus.Histogram
	effectRuns        *prometheus.CounterVec
	effectErrors      prometheus.Counter
	flushesInProgress prometheus.Gauge
}

// NewMetrics creates and registers the flush metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of completed flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush wall time in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		flushIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_iterations",
			Help:        "Pre/commit/post iterations per flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 3, 5, 10, 25, 50, 100},
		}),

		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total effect runs by phase",
			ConstLabels: config.ConstLabels,
		}, []string{"phase"}),

		effectErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_errors_total",
			Help:        "Total effect failures isolated during flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushesInProgress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_in_progress",
			Help:        "Number of flushes currently running",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// FlushStart implements pulse.FlushObserver.
func (m *Metrics) FlushStart() {
	m.flushesInProgress.Inc()
}

// FlushEnd implements pulse.FlushObserver.
func (m *Metrics) FlushEnd(info pulse.FlushInfo) {
	m.flushesInProgress.Dec()
	m.flushesTotal.Inc()
	m.flushDuration.Observe(info.Duration.Seconds())
	m.flushIterations.Observe(float64(info.Iterations))
	m.effectRuns.WithLabelValues("pre").Add(float64(info.PreEffects))
	m.effectRuns.WithLabelValues("post").Add(float64(info.PostEffects))
	m.effectErrors.Add(float64(info.Errors))
}
