package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	StatusChanges  *prometheus.CounterVec
	PublishFailure prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restro",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"path", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restro",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restro",
			Name:      "order_status_changes_total",
			Help:      "Confirmed order status changes by resulting status.",
		}, []string{"status"}),
		PublishFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "restro",
			Name:      "order_event_publish_failures_total",
			Help:      "Order status events that could not be published.",
		}),
	}
	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.StatusChanges,
		m.PublishFailure,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
