// Package metrics provides Prometheus metrics for the dataset sampler:
//   - dataset_fetch_total: Counter with format and outcome labels
//   - dataset_fetch_duration_seconds: Histogram with format label
//   - dataset_fetch_bytes_total: Counter of downloaded bytes per format
//   - http_request_total / http_request_duration_seconds / http_request_in_flight
//
// All metrics are registered with the Prometheus default registry during
// package initialization and exposed on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DatasetFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_fetch_total",
			Help: "Total dataset fetches by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	DatasetFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataset_fetch_duration_seconds",
			Help:    "Dataset fetch latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"format"},
	)

	DatasetFetchBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_fetch_bytes_total",
			Help: "Total bytes downloaded per format",
		},
		[]string{"format"},
	)

	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)
)

func init() {
	prometheus.MustRegister(DatasetFetchTotal)
	prometheus.MustRegister(DatasetFetchDuration)
	prometheus.MustRegister(DatasetFetchBytes)
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
}
