package observe

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

// RuntimeCollector is a prometheus.Collector scraping a runtime's counter
// snapshot on demand. Unlike Metrics, which accumulates at flush
// boundaries, the collector reads pulse.RuntimeStats at scrape time, so
// it also covers gauges with no flush-boundary signal (live effects,
// live scopes).
//
//	reg.MustRegister(observe.NewRuntimeCollector(rt))
type RuntimeCollector struct {
	rt *pulse.Runtime

	flushes         *prometheus.Desc
	flushIterations *prometheus.Desc
	effectRuns      *prometheus.Desc
	effectSkips     *prometheus.Desc
	effectFailures  *prometheus.Desc
	signalsCreated  *prometheus.Desc
	derivedsCreated *prometheus.Desc
	liveEffects     *prometheus.Desc
	liveScopes      *prometheus.Desc
}

// NewRuntimeCollector creates a collector over rt.
func NewRuntimeCollector(rt *pulse.Runtime, opts ...MetricsOption) *RuntimeCollector {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	name := func(n string) string {
		return prometheus.BuildFQName(config.Namespace, config.Subsystem, n)
	}

	return &RuntimeCollector{
		rt: rt,
		flushes: prometheus.NewDesc(name("flushes_completed"),
			"Completed flushes since runtime creation", nil, config.ConstLabels),
		flushIterations: prometheus.NewDesc(name("flush_iterations_total"),
			"Pre/commit/post passes across all flushes", nil, config.ConstLabels),
		effectRuns: prometheus.NewDesc(name("effect_bodies_run_total"),
			"Effect bodies executed", nil, config.ConstLabels),
		effectSkips: prometheus.NewDesc(name("effect_bodies_skipped_total"),
			"Scheduled effects skipped because no dependency changed", nil, config.ConstLabels),
		effectFailures: prometheus.NewDesc(name("effect_failures_total"),
			"Panics isolated from effect bodies", nil, config.ConstLabels),
		signalsCreated: prometheus.NewDesc(name("signals_created_total"),
			"Signals constructed", nil, config.ConstLabels),
		derivedsCreated: prometheus.NewDesc(name("deriveds_created_total"),
			"Derived values constructed", nil, config.ConstLabels),
		liveEffects: prometheus.NewDesc(name("live_effects"),
			"Currently undisposed effects", nil, config.ConstLabels),
		liveScopes: prometheus.NewDesc(name("live_scopes"),
			"Currently undisposed scopes", nil, config.ConstLabels),
	}
}

// Describe implements prometheus.Collector.
func (c *RuntimeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.flushes
	ch <- c.flushIterations
	ch <- c.effectRuns
	ch <- c.effectSkips
	ch <- c.effectFailures
	ch <- c.signalsCreated
	ch <- c.derivedsCreated
	ch <- c.liveEffects
	ch <- c.liveScopes
}

// Collect implements prometheus.Collector.
func (c *RuntimeCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.rt.Stats()

	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.flushes, stats.Flushes)
	counter(c.flushIterations, stats.FlushIterations)
	counter(c.effectRuns, stats.EffectRuns)
	counter(c.effectSkips, stats.EffectSkips)
	counter(c.effectFailures, stats.EffectFailures)
	counter(c.signalsCreated, stats.SignalsCreated)
	counter(c.derivedsCreated, stats.DerivedsCreated)

	ch <- prometheus.MustNewConstMetric(c.liveEffects, prometheus.GaugeValue, float64(stats.LiveEffects))
	ch <- prometheus.MustNewConstMetric(c.liveScopes, prometheus.GaugeValue, float64(stats.LiveScopes))
}
