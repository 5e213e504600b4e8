package webcore

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/hostedwebcore/errors"
)

// PrometheusMetricsCollector implements MetricsCollector using Prometheus metrics
type PrometheusMetricsCollector struct {
	created          *prometheus.CounterVec
	attached         *prometheus.CounterVec
	createFailures   *prometheus.CounterVec
	released         *prometheus.CounterVec
	teardowns        *prometheus.CounterVec
	createDuration   prometheus.Histogram
	teardownDuration *prometheus.HistogramVec
	references       prometheus.Gauge

	registry *prometheus.Registry
}

var _ MetricsCollector = (*PrometheusMetricsCollector)(nil)

// NewPrometheusMetricsCollector creates a new Prometheus metrics collector
func NewPrometheusMetricsCollector(namespace string) *PrometheusMetricsCollector {
	if namespace == "" {
		namespace = "webcore"
	}

	pmc := &PrometheusMetricsCollector{
		registry: prometheus.NewRegistry(),
	}

	pmc.created = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engines_created_total",
			Help:      "Total number of web core engines loaded and activated",
		},
		[]string{"instance"},
	)

	pmc.attached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_attachments_total",
			Help:      "Total number of handles attached to an existing engine",
		},
		[]string{"instance"},
	)

	pmc.createFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "create_failures_total",
			Help:      "Total number of failed web core creations",
		},
		[]string{"kind"},
	)

	pmc.released = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_released_total",
			Help:      "Total number of released web core handles",
		},
		[]string{"instance", "abandoned"},
	)

	pmc.teardowns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_teardowns_total",
			Help:      "Total number of web core engine shutdowns",
		},
		[]string{"instance", "immediate", "status"},
	)

	pmc.createDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_create_duration_seconds",
			Help:      "Duration of engine load and activation",
			Buckets:   prometheus.DefBuckets,
		},
	)

	pmc.teardownDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_teardown_duration_seconds",
			Help:      "Duration of engine shutdown and release",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"immediate"},
	)

	pmc.references = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "references_active",
			Help:      "Current number of live web core handles",
		},
	)

	pmc.registry.MustRegister(
		pmc.created,
		pmc.attached,
		pmc.createFailures,
		pmc.released,
		pmc.teardowns,
		pmc.createDuration,
		pmc.teardownDuration,
		pmc.references,
	)

	return pmc
}

func (pmc *PrometheusMetricsCollector) EngineCreated(instance string, duration time.Duration) {
	pmc.created.WithLabelValues(instance).Inc()
	pmc.createDuration.Observe(duration.Seconds())
}

func (pmc *PrometheusMetricsCollector) EngineAttached(instance string) {
	pmc.attached.WithLabelValues(instance).Inc()
}

func (pmc *PrometheusMetricsCollector) CreateFailed(kind errors.Kind) {
	label := string(kind)
	if label == "" {
		label = "other"
	}
	pmc.createFailures.WithLabelValues(label).Inc()
}

func (pmc *PrometheusMetricsCollector) ReferenceReleased(instance string, abandoned bool) {
	pmc.released.WithLabelValues(instance, strconv.FormatBool(abandoned)).Inc()
}

func (pmc *PrometheusMetricsCollector) EngineTornDown(instance string, immediate bool, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	imm := strconv.FormatBool(immediate)
	pmc.teardowns.WithLabelValues(instance, imm, status).Inc()
	pmc.teardownDuration.WithLabelValues(imm).Observe(duration.Seconds())
}

func (pmc *PrometheusMetricsCollector) ReferencesActive(n int) {
	pmc.references.Set(float64(n))
}

// Registry returns the Prometheus registry holding the collector's metrics.
func (pmc *PrometheusMetricsCollector) Registry() *prometheus.Registry {
	return pmc.registry
}
