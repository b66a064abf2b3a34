// Package metrics exposes Prometheus instrumentation for the gateway.
//
// A nil *Collector is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the gateway records
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generatedImages    *prometheus.CounterVec

	modelFallbacks  *prometheus.CounterVec
	historyRequests *prometheus.CounterVec

	probeUp     *prometheus.GaugeVec
	probeStatus *prometheus.GaugeVec
}

// NewCollector registers the gateway metrics on a private registry
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Generation requests by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Upstream generation latency in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"model"},
		),
		generatedImages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generated_images_total",
				Help:      "Images returned by the upstream",
			},
			[]string{"model"},
		),
		modelFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_fallbacks_total",
				Help:      "Times the built-in model set replaced the upstream listing",
			},
			[]string{"reason"},
		),
		historyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_requests_total",
				Help:      "History listings by outcome",
			},
			[]string{"outcome"},
		),
		probeUp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "upstream_probe_up",
				Help:      "1 if the last diagnostic probe got a 2xx reply",
			},
			[]string{"probe"},
		),
		probeStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "upstream_probe_status_code",
				Help:      "HTTP status of the last diagnostic probe, 0 on transport failure",
			},
			[]string{"probe"},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGeneration records a generation outcome. outcome is "success" or an
// error kind.
func (c *Collector) RecordGeneration(model, outcome string, images int, duration time.Duration) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(model, outcome).Inc()
	if duration > 0 {
		c.generationDuration.WithLabelValues(model).Observe(duration.Seconds())
	}
	if images > 0 {
		c.generatedImages.WithLabelValues(model).Add(float64(images))
	}
}

// RecordModelFallback counts a fallback to the built-in model set
func (c *Collector) RecordModelFallback(reason string) {
	if c == nil {
		return
	}
	c.modelFallbacks.WithLabelValues(reason).Inc()
}

// RecordHistory counts a history listing
func (c *Collector) RecordHistory(success bool) {
	if c == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.historyRequests.WithLabelValues(outcome).Inc()
}

// RecordProbe stores the result of a diagnostic probe
func (c *Collector) RecordProbe(probe string, success bool, status int) {
	if c == nil {
		return
	}
	up := 0.0
	if success {
		up = 1
	}
	c.probeUp.WithLabelValues(probe).Set(up)
	c.probeStatus.WithLabelValues(probe).Set(float64(status))
}
