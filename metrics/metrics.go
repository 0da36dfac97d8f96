package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RequestsTotal counts inbound HTTP requests by route and status code.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vision",
		Subsystem: "gateway",
		Name:      "http_requests_total",
		Help:      "Total number of inbound HTTP requests, labeled by route and status code.",
	}, []string{"route", "code"})

	// RequestDurationSeconds is the time spent serving an inbound request.
	RequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vision",
		Subsystem: "gateway",
		Name:      "http_request_duration_seconds",
		Help:      "Time to serve an inbound HTTP request.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"route"})

	// UpstreamRequestsTotal counts outbound calls by upstream and result.
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vision",
		Subsystem: "gateway",
		Name:      "upstream_requests_total",
		Help:      "Total number of calls to the inference and speech APIs, labeled by result.",
	}, []string{"upstream", "result"})

	// UpstreamDurationSeconds is the latency of a single outbound call.
	UpstreamDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vision",
		Subsystem: "gateway",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of calls to the inference and speech APIs.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"upstream"})

	// NormalizerMatchesTotal counts which response layout the answer was found in.
	NormalizerMatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vision",
		Subsystem: "gateway",
		Name:      "normalizer_matches_total",
		Help:      "Total number of normalized inference responses, labeled by the matching rule.",
	}, []string{"rule"})
)

// Upstream names used as label values.
const (
	UpstreamInference = "inference"
	UpstreamSpeech    = "speech"
)

// Register registers gateway metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDurationSeconds,
			UpstreamRequestsTotal,
			UpstreamDurationSeconds,
			NormalizerMatchesTotal,
		)
	})
}

// ObserveUpstream records one outbound call that started at start.
func ObserveUpstream(upstream, result string, start time.Time) {
	UpstreamRequestsTotal.WithLabelValues(upstream, result).Inc()
	UpstreamDurationSeconds.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
}
