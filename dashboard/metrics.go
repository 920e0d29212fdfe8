package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dashboard's Prometheus collectors. Each server owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	predictions         *prometheus.CounterVec
	predictionErrors    *prometheus.CounterVec
	burnRate            prometheus.Histogram
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burnrate",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "burnrate",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burnrate",
			Name:      "predictions_total",
			Help:      "Single-record predictions by risk tier.",
		}, []string{"tier"}),
		predictionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burnrate",
			Name:      "prediction_errors_total",
			Help:      "Rejected prediction requests by reason.",
		}, []string{"reason"}),
		burnRate: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "burnrate",
			Name:      "predicted_burn_rate",
			Help:      "Distribution of clipped single-record estimates.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
}

// Registry returns the registry served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
