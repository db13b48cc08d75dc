package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Calendar service metrics. Registered on the default registry so the
// /metrics endpoint in cmd/main.go picks them up without extra wiring.
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hermes_calendar_requests_total",
		Help: "Calendar tool invocations by provider, action and outcome",
	}, []string{"provider", "action", "status"})

	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hermes_calendar_upstream_requests_total",
		Help: "Upstream provider HTTP calls by provider and outcome",
	}, []string{"provider", "status"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hermes_calendar_cache_hits_total",
		Help: "Calendar payloads served from the in-memory cache",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hermes_calendar_cache_misses_total",
		Help: "Calendar requests that had to hit an upstream provider",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hermes_calendar_request_duration_seconds",
		Help:    "End-to-end calendar request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "action"})
)
