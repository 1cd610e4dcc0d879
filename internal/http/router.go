package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weathernow/internal/observability"
	"github.com/kjstillabower/weathernow/internal/traffic"
)

// RouterConfig holds the per-route middleware settings.
type RouterConfig struct {
	RequestTimeout     time.Duration
	Limiter            *rate.Limiter // nil disables rate limiting
	Tracker            *traffic.Tracker
	CORSAllowedOrigins []string
}

// NewRouter wires the page, JSON API, health and metrics routes.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.Use(TracingMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	limit := RateLimitMiddleware(cfg.Limiter, cfg.Tracker)
	timeout := TimeoutMiddleware(cfg.RequestTimeout)

	router.Handle("/", limit(timeout(http.HandlerFunc(h.GetPage)))).Methods(http.MethodGet)

	weatherRouter := router.PathPrefix("/weather").Subrouter()
	weatherRouter.Use(CORSMiddleware(cfg.CORSAllowedOrigins))
	weatherRouter.Use(limit)
	weatherRouter.Use(timeout)
	weatherRouter.HandleFunc("/{city}", h.GetWeatherByCity).Methods(http.MethodGet, http.MethodOptions)
	weatherRouter.HandleFunc("", h.GetWeatherByCoordinates).Methods(http.MethodGet, http.MethodOptions)

	return router
}
