package service

import "errors"

var (
	// ErrCityNotFound means geocoding answered but could not resolve the name.
	ErrCityNotFound = errors.New("city not found")
	// ErrGeocodingUnavailable means the geocoding API answered with a non-404, non-2xx status.
	// Viewers still see MsgCityNotFound.
	ErrGeocodingUnavailable = errors.New("geocoding unavailable")
	// ErrWeatherUnavailable means the forecast API answered with a non-2xx status.
	ErrWeatherUnavailable = errors.New("weather data not available")
)

// User-visible messages. These are the only error texts a viewer ever sees.
const (
	MsgCityNotFound       = "City not found"
	MsgWeatherUnavailable = "Weather data not available"
	MsgFetchFailed        = "Failed to fetch weather data. Please try again."
)

// UserMessage collapses any fetch error to the single line shown to the viewer.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrCityNotFound), errors.Is(err, ErrGeocodingUnavailable):
		return MsgCityNotFound
	case errors.Is(err, ErrWeatherUnavailable):
		return MsgWeatherUnavailable
	default:
		return MsgFetchFailed
	}
}
