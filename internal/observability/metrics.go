package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate on the inbound API. Watch for: sudden drops (service down) or spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Rate limit denials on the inbound API. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Geocoding upstream call rate. Watch for: not_found ratio (bad user input) vs error ratio (upstream trouble).
	GeocodeCallsTotal *prometheus.CounterVec

	// Forecast upstream call rate by window (hourly/daily). Watch for: error vs success ratio.
	ForecastCallsTotal *prometheus.CounterVec

	// Forecast upstream latency. Watch for: p95 > 2s (upstream degradation), p99 near the 10s timeout.
	ForecastCallDuration *prometheus.HistogramVec

	// Weather cache hits per frequency. Hit rate = hits/(hits+misses).
	CacheHitsTotal *prometheus.CounterVec

	// Weather cache misses per frequency.
	CacheMissesTotal *prometheus.CounterVec

	// Weather cache backend errors by operation. Nonzero sustained values mean every sweep hits the provider.
	CacheErrorsTotal *prometheus.CounterVec

	// Full sweep duration per frequency tier. Watch for: growth proportional to user count.
	SweepDurationSeconds *prometheus.HistogramVec

	// Per-event sweep outcomes: sent, no_weather, no_message, failed.
	SweepEventsTotal *prometheus.CounterVec

	// Mail dispatch results. Watch for: failure ratio (SMTP trouble).
	MailSentTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by the rate limiter",
		},
	)
	GeocodeCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocodeCallsTotal",
			Help: "Total geocoding upstream calls by outcome (success, not_found, error)",
		},
		[]string{"status"},
	)
	ForecastCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastCallsTotal",
			Help: "Total forecast upstream calls by window and outcome",
		},
		[]string{"window", "status"},
	)
	ForecastCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecastCallDurationSeconds",
			Help:    "Forecast upstream call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"window"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherCacheHitsTotal",
			Help: "Weather cache hits by frequency",
		},
		[]string{"frequency"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherCacheMissesTotal",
			Help: "Weather cache misses by frequency",
		},
		[]string{"frequency"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherCacheErrorsTotal",
			Help: "Weather cache backend errors by operation (get, put)",
		},
		[]string{"operation"},
	)
	SweepDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweepDurationSeconds",
			Help:    "Notification sweep duration in seconds per frequency tier",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"frequency"},
	)
	SweepEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweepEventsTotal",
			Help: "Events processed per sweep by outcome (sent, no_weather, no_message, failed)",
		},
		[]string{"frequency", "outcome"},
	)
	MailSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailSentTotal",
			Help: "Mail dispatch attempts by result (success, failure)",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RateLimitDeniedTotal,
		GeocodeCallsTotal,
		ForecastCallsTotal,
		ForecastCallDuration,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheErrorsTotal,
		SweepDurationSeconds,
		SweepEventsTotal,
		MailSentTotal,
	)
}

// MetricsHandler returns the HTTP handler serving the /metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
