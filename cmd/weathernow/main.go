package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weathernow/internal/cache"
	"github.com/kjstillabower/weathernow/internal/client"
	"github.com/kjstillabower/weathernow/internal/config"
	httphandler "github.com/kjstillabower/weathernow/internal/http"
	"github.com/kjstillabower/weathernow/internal/lifecycle"
	"github.com/kjstillabower/weathernow/internal/observability"
	"github.com/kjstillabower/weathernow/internal/presenter"
	"github.com/kjstillabower/weathernow/internal/service"
	"github.com/kjstillabower/weathernow/internal/traffic"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	if len(cfg.TrackedLocations) > 0 {
		observability.SetTrackedLocations(cfg.TrackedLocations)
	}
	if err := observability.InitTracing(observability.TracingConfig{
		ServiceName: cfg.TracingServiceName,
		ZipkinURL:   cfg.ZipkinURL,
	}, logger); err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	opts := client.Options{
		Timeout:        cfg.UpstreamTimeout,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RetryMaxDelay:  cfg.RetryMaxDelay,
	}
	forecastClient, err := client.NewForecastClient(cfg.ForecastURL, opts)
	if err != nil {
		logger.Fatal("forecast client", zap.Error(err))
	}
	geocodingClient, err := client.NewGeocodingClient(cfg.GeocodingURL, cfg.Language, opts)
	if err != nil {
		logger.Fatal("geocoding client", zap.Error(err))
	}
	reverseClient, err := client.NewReverseGeocodingClient(cfg.ReverseGeocodingURL, cfg.Language, opts)
	if err != nil {
		logger.Fatal("reverse geocoding client", zap.Error(err))
	}

	var placeCache cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case config.CacheMemcached:
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		placeCache = mc
		logger.Info("cache backend: memcached", zap.Strings("addrs", cfg.MemcachedAddrList()))
	default:
		placeCache = cache.NewInMemoryCache(cfg.CacheCleanup)
		logger.Info("cache backend: in_memory")
	}

	weatherService := service.NewWeatherService(geocodingClient, reverseClient, forecastClient, placeCache, service.Config{
		DefaultCity: cfg.DefaultCity,
		PlaceTTL:    cfg.PlaceCacheTTL,
	})

	if len(cfg.WarmPlaces) > 0 {
		warmer := cache.NewWarmer(weatherService, logger)
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx, cfg.WarmPlaces); err != nil {
			logger.Warn("place cache warming failed", zap.Error(err))
		}
		warmCancel()
	}

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	tracker := traffic.NewTracker(cfg.DegradedWindow)
	handler := httphandler.NewHandler(weatherService, presenter.New(nil), tracker, healthConfig, logger, cfg.CityMinLength, cfg.CityMaxLength)

	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		Limiter:            limiter,
		Tracker:            tracker,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort), zap.String("default_city", weatherService.DefaultCity()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()
	lifecycle.MarkServing()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.InFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.InFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
