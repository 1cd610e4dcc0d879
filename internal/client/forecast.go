package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kjstillabower/weathernow/internal/models"
)

// DefaultForecastURL is the Open-Meteo forecast endpoint.
const DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

const (
	hourlyFields = "temperature_2m,relative_humidity_2m,wind_speed_10m,visibility"
	dailyFields  = "temperature_2m_max,temperature_2m_min,weather_code"
)

// ForecastProvider fetches current conditions and hourly/daily series for a point.
type ForecastProvider interface {
	Forecast(ctx context.Context, coords models.Coordinates) (models.Forecast, error)
}

// ForecastClient calls the Open-Meteo forecast API.
type ForecastClient struct {
	upstream *upstream
}

// NewForecastClient returns a client for the forecast endpoint at baseURL.
func NewForecastClient(baseURL string, opts Options) (*ForecastClient, error) {
	u, err := newUpstream(APIForecast, baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &ForecastClient{upstream: u}, nil
}

type forecastResponse struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`
	CurrentWeather   *struct {
		Temperature   float64 `json:"temperature"`
		WindSpeed     float64 `json:"windspeed"`
		WindDirection float64 `json:"winddirection"`
		WeatherCode   int     `json:"weathercode"`
		Time          string  `json:"time"`
	} `json:"current_weather"`
	Hourly *struct {
		Time             []string   `json:"time"`
		Temperature      []*float64 `json:"temperature_2m"`
		RelativeHumidity []*float64 `json:"relative_humidity_2m"`
		WindSpeed        []*float64 `json:"wind_speed_10m"`
		Visibility       []*float64 `json:"visibility"`
	} `json:"hourly"`
	Daily *struct {
		Time           []string   `json:"time"`
		TemperatureMax []*float64 `json:"temperature_2m_max"`
		TemperatureMin []*float64 `json:"temperature_2m_min"`
		WeatherCode    []*int     `json:"weather_code"`
	} `json:"daily"`
}

// Forecast requests current weather plus the hourly and daily series used by the page.
func (c *ForecastClient) Forecast(ctx context.Context, coords models.Coordinates) (models.Forecast, error) {
	params := url.Values{}
	params.Set("latitude", formatCoordinate(coords.Latitude))
	params.Set("longitude", formatCoordinate(coords.Longitude))
	params.Set("current_weather", "true")
	params.Set("hourly", hourlyFields)
	params.Set("daily", dailyFields)
	params.Set("timezone", "auto")

	var resp forecastResponse
	if err := c.upstream.getJSON(ctx, params, &resp); err != nil {
		return models.Forecast{}, err
	}
	if resp.CurrentWeather == nil {
		return models.Forecast{}, fmt.Errorf("%s: parse response: missing current_weather", APIForecast)
	}
	return mapForecast(resp, coords), nil
}

func mapForecast(resp forecastResponse, coords models.Coordinates) models.Forecast {
	f := models.Forecast{
		Coordinates:      coords,
		Timezone:         resp.Timezone,
		UTCOffsetSeconds: resp.UTCOffsetSeconds,
		Current: models.Current{
			Temperature:   resp.CurrentWeather.Temperature,
			WindSpeed:     resp.CurrentWeather.WindSpeed,
			WindDirection: resp.CurrentWeather.WindDirection,
			WeatherCode:   resp.CurrentWeather.WeatherCode,
			Time:          resp.CurrentWeather.Time,
		},
	}
	if h := resp.Hourly; h != nil {
		f.Hourly = &models.Hourly{
			Time:             h.Time,
			Temperature:      h.Temperature,
			RelativeHumidity: h.RelativeHumidity,
			WindSpeed:        h.WindSpeed,
			Visibility:       h.Visibility,
		}
	}
	if d := resp.Daily; d != nil {
		f.Daily = &models.Daily{
			Time:           d.Time,
			TemperatureMax: d.TemperatureMax,
			TemperatureMin: d.TemperatureMin,
			WeatherCode:    d.WeatherCode,
		}
	}
	return f
}
