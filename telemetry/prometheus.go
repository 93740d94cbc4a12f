// Package telemetry provides detector.Instrument implementations backed by
// Prometheus and OpenTelemetry.
package telemetry

import (
	"strconv"
	"time"

	"github.com/delaneyj/watchparty/detector"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "watchparty").
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	// Buckets are the histogram buckets for traversal duration.
	Buckets []float64
	// Registry defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "watchparty",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records tree checks, watcher fires and caught failures.
type Metrics struct {
	treeChecks    prometheus.Counter
	checkDuration prometheus.Histogram
	nodesChecked  prometheus.Histogram
	watcherFires  *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

var _ detector.Instrument = (*Metrics)(nil)

func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		treeChecks: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tree_checks_total",
			Help:        "Total number of detector tree traversals",
			ConstLabels: config.ConstLabels,
		}),
		checkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tree_check_duration_seconds",
			Help:        "Duration of detector tree traversals in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		nodesChecked: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tree_check_nodes",
			Help:        "Number of dirty nodes evaluated per traversal",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 8),
		}),
		watcherFires: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watcher_fires_total",
			Help:        "Total number of watcher value changes",
			ConstLabels: config.ConstLabels,
		}, []string{"input"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "check_failures_total",
			Help:        "Total number of failures caught during checks",
			ConstLabels: config.ConstLabels,
		}, []string{"source"}),
	}
}

func (m *Metrics) StartTreeCheck(uint64) func(int) {
	start := time.Now()
	return func(checked int) {
		m.treeChecks.Inc()
		m.checkDuration.Observe(time.Since(start).Seconds())
		m.nodesChecked.Observe(float64(checked))
	}
}

// WatcherFired labels fires by whether the watcher is an input, not by
// property name, to keep cardinality bounded.
func (m *Metrics) WatcherFired(_ uint64, property string) {
	m.watcherFires.WithLabelValues(strconv.FormatBool(property != "")).Inc()
}

func (m *Metrics) CheckFailed(err *detector.WatchError) {
	m.failures.WithLabelValues(string(err.Source)).Inc()
}
