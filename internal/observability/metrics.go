package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream call rate by api (forecast, geocoding, reverse_geocoding) and status class.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream latency. Watch for: p95 > 2s on forecast (Open-Meteo degradation).
	UpstreamDuration *prometheus.HistogramVec

	// Upstream failures by api and CategorizeError label.
	UpstreamErrorsTotal *prometheus.CounterVec

	// Retry attempts per api. Zero unless reliability.retry_max_attempts > 1.
	UpstreamRetriesTotal *prometheus.CounterVec

	// Place cache lookups by result (hit, miss, error).
	PlaceCacheLookupsTotal *prometheus.CounterVec

	// Weather lookups by mode (city, coordinates).
	WeatherQueriesTotal *prometheus.CounterVec

	// Per-location query count (allow-list; others go to "other").
	WeatherQueriesByLocationTotal *prometheus.CounterVec

	// Inbound requests denied by our own rate limiter.
	RateLimitDeniedTotal prometheus.Counter

	trackedLocationsMu sync.RWMutex
	trackedLocations   map[string]struct{}
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
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of upstream API calls",
		},
		[]string{"api", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamDurationSeconds",
			Help:    "Upstream API latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api", "status"},
	)
	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamErrorsTotal",
			Help: "Upstream API failures by error category",
		},
		[]string{"api", "category"},
	)
	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamRetriesTotal",
			Help: "Total number of retry attempts for upstream API calls",
		},
		[]string{"api"},
	)
	PlaceCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placeCacheLookupsTotal",
			Help: "Geocoded place cache lookups by result",
		},
		[]string{"result"},
	)
	WeatherQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherQueriesTotal",
			Help: "Total number of weather lookups by mode",
		},
		[]string{"mode"},
	)
	WeatherQueriesByLocationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherQueriesByLocationTotal",
			Help: "Weather queries by city (allow-list; others use location=other)",
		},
		[]string{"location"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of inbound requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamDuration, UpstreamErrorsTotal, UpstreamRetriesTotal,
		PlaceCacheLookupsTotal,
		WeatherQueriesTotal, WeatherQueriesByLocationTotal,
		RateLimitDeniedTotal,
	)
}

// SetTrackedLocations sets the allow-list for location metrics. Non-tracked locations increment "other".
func SetTrackedLocations(locations []string) {
	trackedLocationsMu.Lock()
	defer trackedLocationsMu.Unlock()
	trackedLocations = make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		trackedLocations[normalizeLocationForMetrics(loc)] = struct{}{}
	}
}

// RecordCityQuery records a weather lookup by city name.
func RecordCityQuery(city string) {
	WeatherQueriesTotal.WithLabelValues("city").Inc()
	WeatherQueriesByLocationTotal.WithLabelValues(MetricLocationLabel(city)).Inc()
}

// RecordCoordinatesQuery records a weather lookup by coordinates. Coordinates
// are never used as a label.
func RecordCoordinatesQuery() {
	WeatherQueriesTotal.WithLabelValues("coordinates").Inc()
}

// MetricLocationLabel returns the normalized city if it is tracked, else "other".
func MetricLocationLabel(location string) string {
	loc := normalizeLocationForMetrics(location)
	trackedLocationsMu.RLock()
	_, ok := trackedLocations[loc] // nil map read is safe in Go
	trackedLocationsMu.RUnlock()
	if ok {
		return loc
	}
	return "other"
}

func normalizeLocationForMetrics(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
