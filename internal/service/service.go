package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/kjstillabower/weathernow/internal/cache"
	"github.com/kjstillabower/weathernow/internal/client"
	"github.com/kjstillabower/weathernow/internal/models"
	"github.com/kjstillabower/weathernow/internal/observability"
)

// DefaultCity is shown when a request names neither a city nor coordinates.
const DefaultCity = "New York"

const tracerName = "github.com/kjstillabower/weathernow/internal/service"

// Config holds service-level settings.
type Config struct {
	DefaultCity string
	// PlaceTTL is how long a geocoded city stays in the place cache.
	PlaceTTL time.Duration
}

// WeatherService runs the two fetch flows: city name to geocode to forecast, and
// coordinates to forecast plus reverse geocode.
type WeatherService struct {
	geocoder    client.Geocoder
	reverse     client.ReverseGeocoder
	forecast    client.ForecastProvider
	places      cache.Cache // optional
	placeTTL    time.Duration
	defaultCity string
	now         func() time.Time
}

// NewWeatherService creates a WeatherService. places may be nil to disable the place cache.
func NewWeatherService(geocoder client.Geocoder, reverse client.ReverseGeocoder, forecast client.ForecastProvider, places cache.Cache, cfg Config) *WeatherService {
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = DefaultCity
	}
	return &WeatherService{
		geocoder:    geocoder,
		reverse:     reverse,
		forecast:    forecast,
		places:      places,
		placeTTL:    cfg.PlaceTTL,
		defaultCity: cfg.DefaultCity,
		now:         time.Now,
	}
}

// DefaultCity returns the city used by Default.
func (s *WeatherService) DefaultCity() string {
	return s.defaultCity
}

// Default fetches weather for the configured default city.
func (s *WeatherService) Default(ctx context.Context) (models.Report, error) {
	return s.ByCity(ctx, s.defaultCity)
}

// ByCity geocodes city and fetches its forecast. The report is named "name, country".
// An empty geocoding result wraps ErrCityNotFound, any other geocoding status
// failure wraps ErrGeocodingUnavailable and a forecast status failure wraps
// ErrWeatherUnavailable. Transport and parse failures carry none of them.
func (s *WeatherService) ByCity(ctx context.Context, city string) (models.Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "WeatherService.ByCity")
	defer span.End()

	city = strings.TrimSpace(city)
	span.SetAttributes(attribute.String("city", city))
	logger := observability.LoggerFromContext(ctx)
	observability.RecordCityQuery(city)
	start := time.Now()

	if city == "" {
		err := fmt.Errorf("%w: empty city", ErrCityNotFound)
		span.SetStatus(codes.Error, err.Error())
		return models.Report{}, err
	}

	place, err := s.ResolvePlace(ctx, city)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocoding failed")
		return models.Report{}, err
	}

	forecast, err := s.forecast.Forecast(ctx, place.Coordinates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forecast failed")
		var se *client.StatusError
		if errors.As(err, &se) {
			return models.Report{}, fmt.Errorf("%w: %s: %w", ErrWeatherUnavailable, place.DisplayName(), err)
		}
		return models.Report{}, fmt.Errorf("fetch weather for %s: %w", place.DisplayName(), err)
	}

	logger.Debug("weather served",
		zap.String("mode", "city"),
		zap.String("city", city),
		zap.String("location", place.DisplayName()),
		zap.Duration("duration", time.Since(start)))
	return models.Report{
		Location:  place.DisplayName(),
		Forecast:  forecast,
		FetchedAt: s.now(),
	}, nil
}

// ByCoordinates fetches the forecast, then names the point by reverse geocoding.
// A reverse lookup that answers with a non-2xx status falls back to
// client.FallbackLocationName; a transport or parse failure fails the request.
func (s *WeatherService) ByCoordinates(ctx context.Context, coords models.Coordinates) (models.Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "WeatherService.ByCoordinates")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)
	observability.RecordCoordinatesQuery()
	start := time.Now()

	forecast, err := s.forecast.Forecast(ctx, coords)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forecast failed")
		return models.Report{}, fmt.Errorf("fetch weather at %s: %w", coords, err)
	}

	name, err := s.reverse.Reverse(ctx, coords)
	if err != nil {
		var se *client.StatusError
		if !errors.As(err, &se) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reverse geocoding failed")
			return models.Report{}, fmt.Errorf("name location at %s: %w", coords, err)
		}
		logger.Warn("reverse geocoding failed", zap.String("coordinates", coords.String()), zap.Error(err))
		name = client.FallbackLocationName
	}
	if name == "" {
		name = client.FallbackLocationName
	}

	logger.Debug("weather served",
		zap.String("mode", "coordinates"),
		zap.String("location", name),
		zap.Duration("duration", time.Since(start)))
	return models.Report{
		Location:  name,
		Forecast:  forecast,
		FetchedAt: s.now(),
	}, nil
}

// ResolvePlace geocodes city through the place cache. Cache errors are logged
// and treated as misses.
func (s *WeatherService) ResolvePlace(ctx context.Context, city string) (models.Place, error) {
	key := cache.Key(city)
	logger := observability.LoggerFromContext(ctx)

	if s.places != nil {
		place, ok, err := s.places.Get(ctx, key)
		switch {
		case err != nil:
			observability.PlaceCacheLookupsTotal.WithLabelValues("error").Inc()
			logger.Warn("place cache get failed", zap.String("city", key), zap.Error(err))
		case ok:
			observability.PlaceCacheLookupsTotal.WithLabelValues("hit").Inc()
			logger.Debug("place cache hit", zap.String("city", key))
			return place, nil
		default:
			observability.PlaceCacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}

	place, err := s.geocoder.Search(ctx, city)
	if err != nil {
		var se *client.StatusError
		switch {
		case errors.Is(err, client.ErrLocationNotFound):
			return models.Place{}, fmt.Errorf("%w: %q: %w", ErrCityNotFound, city, err)
		case errors.As(err, &se):
			return models.Place{}, fmt.Errorf("%w: %q: %w", ErrGeocodingUnavailable, city, err)
		}
		return models.Place{}, fmt.Errorf("geocode %q: %w", city, err)
	}

	if s.places != nil {
		if err := s.places.Set(ctx, key, place, s.placeTTL); err != nil {
			logger.Warn("place cache set failed", zap.String("city", key), zap.Error(err))
		}
	}
	return place, nil
}
