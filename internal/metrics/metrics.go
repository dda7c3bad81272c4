package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cascade"

// Collector holds the Prometheus metrics for the daemon. Each collector owns
// its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Ingestions counts router outcomes by resolver and result
	Ingestions *prometheus.CounterVec
	// ImageFetches counts image downloads by result
	ImageFetches *prometheus.CounterVec
	// RelayOps counts relay cache operations (set, hit, miss, expired)
	RelayOps *prometheus.CounterVec
	Exports  *prometheus.CounterVec
}

// NewCollector creates and registers all metrics
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Drop and paste events by resolver and result",
		}, []string{"resolver", "result"}),
		ImageFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_fetches_total",
			Help:      "Image downloads by result",
		}, []string{"result"}),
		RelayOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_operations_total",
			Help:      "Relay cache operations",
		}, []string{"op"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Project exports by format and result",
		}, []string{"format", "result"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.Ingestions,
		c.ImageFetches,
		c.RelayOps,
		c.Exports,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveIngestion records one router outcome. Safe on a nil collector.
func (c *Collector) ObserveIngestion(resolver, result string) {
	if c == nil {
		return
	}
	c.Ingestions.WithLabelValues(resolver, result).Inc()
}

// ObserveFetch records one image download result. Safe on a nil collector.
func (c *Collector) ObserveFetch(result string) {
	if c == nil {
		return
	}
	c.ImageFetches.WithLabelValues(result).Inc()
}

// ObserveRelay records one relay cache operation. Safe on a nil collector.
func (c *Collector) ObserveRelay(op string) {
	if c == nil {
		return
	}
	c.RelayOps.WithLabelValues(op).Inc()
}

// ObserveExport records one export attempt. Safe on a nil collector.
func (c *Collector) ObserveExport(format, result string) {
	if c == nil {
		return
	}
	c.Exports.WithLabelValues(format, result).Inc()
}
