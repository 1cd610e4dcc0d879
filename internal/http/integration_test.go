//go:build integration
// +build integration

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weathernow/internal/cache"
	"github.com/kjstillabower/weathernow/internal/models"
	"github.com/kjstillabower/weathernow/internal/observability"
	testhelpers "github.com/kjstillabower/weathernow/internal/testhelpers"
	"github.com/kjstillabower/weathernow/internal/traffic"
)

var testLogger *zap.Logger

func init() {
	var err error
	testLogger, err = observability.NewLogger()
	if err != nil {
		panic(err)
	}
}

// setupIntegrationRouter creates a fully wired router against the live APIs.
// Returns router, place cache (for test setup), and cleanup function.
func setupIntegrationRouter(t *testing.T, limiter *rate.Limiter) (http.Handler, cache.Cache, func()) {
	cfg := testhelpers.GetIntegrationConfig(t)
	svc, placeCache, cleanup := testhelpers.SetupIntegrationService(t, cfg)

	tracker := traffic.NewTracker(0)
	handler := NewHandler(svc, nil, tracker, &HealthConfig{DegradedWindow: time.Minute, DegradedErrorPct: 50}, testLogger, 1, 100)
	router := NewRouter(handler, testLogger, RouterConfig{
		RequestTimeout: 15 * time.Second,
		Limiter:        limiter,
		Tracker:        tracker,
	})
	return router, placeCache, cleanup
}

func makeIntegrationRequest(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

// TestIntegration_City verifies a live city lookup end to end.
func TestIntegration_City(t *testing.T) {
	router, _, cleanup := setupIntegrationRouter(t, nil)
	defer cleanup()

	w := makeIntegrationRequest(router, "/weather/London")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp WeatherResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Report.Location == "" {
		t.Error("Report.Location empty")
	}
	if resp.View.Date == "" || resp.View.Description == "" {
		t.Errorf("View incomplete: %+v", resp.View)
	}
}

// TestIntegration_CachedPlace verifies a pre-populated place skips geocoding and still fetches weather.
func TestIntegration_CachedPlace(t *testing.T) {
	router, placeCache, cleanup := setupIntegrationRouter(t, nil)
	defer cleanup()

	place := models.Place{Name: "Testville", Country: "Nowhere", Coordinates: models.Coordinates{Latitude: 47.6, Longitude: -122.3}}
	if err := placeCache.Set(t.Context(), cache.Key("testville-integration"), place, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	w := makeIntegrationRequest(router, "/weather/testville-integration")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp WeatherResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Report.Location != "Testville, Nowhere" {
		t.Errorf("Location = %q, want Testville, Nowhere", resp.Report.Location)
	}
}

// TestIntegration_UnknownCity verifies the live geocoder's empty result maps to 404.
func TestIntegration_UnknownCity(t *testing.T) {
	router, _, cleanup := setupIntegrationRouter(t, nil)
	defer cleanup()

	w := makeIntegrationRequest(router, "/weather/Qxzvbnmplk")

	if w.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusNotFound, w.Body.String())
	}
}

// TestIntegration_Coordinates verifies a live coordinates lookup names the place.
func TestIntegration_Coordinates(t *testing.T) {
	router, _, cleanup := setupIntegrationRouter(t, nil)
	defer cleanup()

	w := makeIntegrationRequest(router, "/weather?lat=48.8566&lon=2.3522")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d. Body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp WeatherResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Report.Location == "" {
		t.Error("Location empty, want a reverse-geocoded name or fallback")
	}
}

// TestIntegration_RateLimit verifies the inbound limiter rejects bursts.
func TestIntegration_RateLimit(t *testing.T) {
	router, _, cleanup := setupIntegrationRouter(t, rate.NewLimiter(rate.Limit(1), 1))
	defer cleanup()

	first := makeIntegrationRequest(router, "/weather/Paris")
	second := makeIntegrationRequest(router, "/weather/Paris")

	if first.Code != http.StatusOK {
		t.Errorf("first Status = %d, want %d", first.Code, http.StatusOK)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second Status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}
}
