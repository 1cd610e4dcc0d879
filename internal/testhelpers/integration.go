//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weathernow/internal/cache"
	"github.com/kjstillabower/weathernow/internal/client"
	"github.com/kjstillabower/weathernow/internal/config"
	"github.com/kjstillabower/weathernow/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	ForecastURL         string
	GeocodingURL        string
	ReverseGeocodingURL string
	CacheBackend        string // "in_memory" or "memcached"
	MemcachedAddr       string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Live APIs are only called when WEATHERNOW_LIVE=1; otherwise the test is skipped.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	if os.Getenv("WEATHERNOW_LIVE") != "1" {
		t.Skip("WEATHERNOW_LIVE not set, skipping integration test against live APIs")
	}

	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		ForecastURL:         envOr("FORECAST_URL", client.DefaultForecastURL),
		GeocodingURL:        envOr("GEOCODING_URL", client.DefaultGeocodingURL),
		ReverseGeocodingURL: envOr("REVERSE_GEOCODING_URL", client.DefaultReverseGeocodingURL),
		CacheBackend:        os.Getenv("INTEGRATION_CACHE_BACKEND"),
		MemcachedAddr:       memcachedAddr,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SetupIntegrationService creates a fully configured service for integration tests.
// Returns weather service, place cache, and cleanup function.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.WeatherService, cache.Cache, func()) {
	opts := client.Options{Timeout: 10 * time.Second}
	forecast, err := client.NewForecastClient(cfg.ForecastURL, opts)
	if err != nil {
		t.Fatalf("NewForecastClient() error = %v", err)
	}
	geocoder, err := client.NewGeocodingClient(cfg.GeocodingURL, "en", opts)
	if err != nil {
		t.Fatalf("NewGeocodingClient() error = %v", err)
	}
	reverse, err := client.NewReverseGeocodingClient(cfg.ReverseGeocodingURL, "en", opts)
	if err != nil {
		t.Fatalf("NewReverseGeocodingClient() error = %v", err)
	}

	var placeCache cache.Cache
	cleanup := func() {}

	if cfg.CacheBackend == config.CacheMemcached {
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err == nil && mc.Ping() == nil {
			placeCache = mc
			cleanup = func() { _ = mc.Close() }
			t.Logf("Using Memcached cache at %s", cfg.MemcachedAddr)
		} else {
			if mc != nil {
				_ = mc.Close()
			}
			t.Logf("Memcached not available, using in-memory cache")
		}
	}
	if placeCache == nil {
		placeCache = cache.NewInMemoryCache(time.Minute)
	}

	svc := service.NewWeatherService(geocoder, reverse, forecast, placeCache, service.Config{PlaceTTL: time.Hour})
	return svc, placeCache, cleanup
}
