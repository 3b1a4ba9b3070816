// Package metrics exposes scan and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements engine.Metrics using Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	scansTotal     *prometheus.CounterVec
	skippedMarkets *prometheus.CounterVec
	opportunities  *prometheus.GaugeVec
	scanDuration   *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

// New creates a recorder with its own registry, so several recorders can
// coexist in one process (tests).
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuebet_scans_total",
				Help: "Total number of completed scans",
			},
			[]string{"sport"},
		),
		skippedMarkets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuebet_skipped_markets_total",
				Help: "Markets skipped for missing or malformed sharp data",
			},
			[]string{"sport"},
		),
		opportunities: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "valuebet_opportunities",
				Help: "+EV opportunities found by the last scan",
			},
			[]string{"sport"},
		),
		scanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "valuebet_scan_duration_seconds",
				Help:    "Duration of scans in seconds, feed call included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sport"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuebet_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valuebet_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		httpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "valuebet_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// RecordScan records a completed scan.
func (r *Recorder) RecordScan(sport string, seconds float64, opportunities, skipped int) {
	r.scansTotal.WithLabelValues(sport).Inc()
	r.scanDuration.WithLabelValues(sport).Observe(seconds)
	r.opportunities.WithLabelValues(sport).Set(float64(opportunities))
	if skipped > 0 {
		r.skippedMarkets.WithLabelValues(sport).Add(float64(skipped))
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordRequest records one served HTTP request.
func (r *Recorder) RecordRequest(route string, code int, d time.Duration) {
	r.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	r.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
