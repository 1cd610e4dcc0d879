package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weathernow/internal/client"
	"github.com/kjstillabower/weathernow/internal/lifecycle"
	"github.com/kjstillabower/weathernow/internal/models"
	"github.com/kjstillabower/weathernow/internal/observability"
	"github.com/kjstillabower/weathernow/internal/presenter"
	"github.com/kjstillabower/weathernow/internal/service"
	"github.com/kjstillabower/weathernow/internal/traffic"
	"github.com/kjstillabower/weathernow/internal/validation"
)

// Error codes in the JSON error envelope.
const (
	CodeInvalidLocation     = "INVALID_LOCATION"
	CodeInvalidCoordinates  = "INVALID_COORDINATES"
	CodeCityNotFound        = "CITY_NOT_FOUND"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeRateLimited         = "RATE_LIMITED"
)

// WeatherFetcher runs the fetch flows. *service.WeatherService implements it.
type WeatherFetcher interface {
	ByCity(ctx context.Context, city string) (models.Report, error)
	ByCoordinates(ctx context.Context, coords models.Coordinates) (models.Report, error)
	Default(ctx context.Context) (models.Report, error)
}

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weather          WeatherFetcher
	presenter        *presenter.Presenter
	tracker          *traffic.Tracker
	healthConfig     *HealthConfig
	logger           *zap.Logger
	cityMinLength    int
	cityMaxLength    int
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. A nil presenter or tracker gets a default instance.
func NewHandler(
	weather WeatherFetcher,
	pres *presenter.Presenter,
	tracker *traffic.Tracker,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	cityMinLength, cityMaxLength int,
) *Handler {
	if pres == nil {
		pres = presenter.New(nil)
	}
	if tracker == nil {
		tracker = traffic.NewTracker(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		weather:       weather,
		presenter:     pres,
		tracker:       tracker,
		healthConfig:  healthConfig,
		logger:        logger,
		cityMinLength: cityMinLength,
		cityMaxLength: cityMaxLength,
	}
}

// WeatherResponse is the JSON body of a successful weather lookup.
type WeatherResponse struct {
	Report models.Report  `json:"report"`
	View   presenter.View `json:"view"`
}

// GetWeatherByCity handles GET /weather/{city}.
func (h *Handler) GetWeatherByCity(w http.ResponseWriter, r *http.Request) {
	city, err := validation.ValidateCity(mux.Vars(r)["city"], h.cityMinLength, h.cityMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidLocation, err.Error())
		return
	}
	report, err := h.weather.ByCity(r.Context(), city)
	h.writeWeather(w, r, report, err)
}

// GetWeatherByCoordinates handles GET /weather?lat=..&lon=... With neither
// parameter it serves the default city.
func (h *Handler) GetWeatherByCoordinates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, lon := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lon"))
	if lat == "" && lon == "" {
		report, err := h.weather.Default(r.Context())
		h.writeWeather(w, r, report, err)
		return
	}
	coords, err := validation.ParseCoordinates(lat, lon)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidCoordinates, err.Error())
		return
	}
	report, err := h.weather.ByCoordinates(r.Context(), coords)
	h.writeWeather(w, r, report, err)
}

func (h *Handler) writeWeather(w http.ResponseWriter, r *http.Request, report models.Report, err error) {
	h.recordOutcome(r.Context(), err)
	if err != nil {
		writeFetchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, WeatherResponse{Report: report, View: h.presenter.Present(report)})
}

// recordOutcome feeds the degraded check. An empty geocoding result is the
// caller's typo, not an upstream fault, so it is not counted.
func (h *Handler) recordOutcome(ctx context.Context, err error) {
	switch {
	case err == nil:
		h.tracker.RecordSuccess()
	case errors.Is(err, client.ErrLocationNotFound):
	default:
		h.tracker.RecordFailure()
		observability.LoggerFromContext(ctx).Warn("weather fetch failed",
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err))
	}
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.status == "degraded" {
		checks["upstream"] = "unhealthy"
	} else {
		checks["upstream"] = "healthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "weathernow",
		"version":   "dev",
		"phase":     lifecycle.Current().String(),
		"uptime":    lifecycle.Uptime().Round(time.Second).String(),
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus determines the current health status by evaluating conditions
// in priority order: shutting-down > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig != nil && h.tracker.Degraded(h.healthConfig.DegradedWindow, h.healthConfig.DegradedErrorPct) {
		return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}

// fetchErrorStatus maps a fetch error to its HTTP status and error code.
func fetchErrorStatus(err error) (int, string) {
	if errors.Is(err, service.ErrCityNotFound) {
		return http.StatusNotFound, CodeCityNotFound
	}
	return http.StatusServiceUnavailable, CodeUpstreamUnavailable
}

// writeFetchError writes the user-visible message for a failed fetch.
func writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := fetchErrorStatus(err)
	writeError(w, r, status, code, service.UserMessage(err))
	observability.LoggerFromContext(r.Context()).Debug("fetch error", zap.Int("status", status), zap.Error(err))
}
