package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CrawlsTotal         *prometheus.CounterVec
	CrawlDuration       *prometheus.HistogramVec
	ItemsCollected      *prometheus.CounterVec
	ScheduledSources    prometheus.Gauge
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		CrawlsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawls_total",
				Help: "Total number of crawl attempts.",
			},
			[]string{"type", "status"}, // status: success, no_data, error
		),
		CrawlDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawl_duration_seconds",
				Help:    "Duration of crawl operations.",
				Buckets: []float64{1, 5, 10, 15, 30, 60, 120},
			},
			[]string{"type"},
		),
		ItemsCollected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "items_collected_total",
				Help: "Total number of items handed to storage.",
			},
			[]string{"type"},
		),
		ScheduledSources: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "scheduled_sources",
				Help: "Current number of sources with a recurring crawl.",
			},
		),
	}
}
