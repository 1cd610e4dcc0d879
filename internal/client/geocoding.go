package client

import (
	"context"
	"net/url"

	"github.com/kjstillabower/weathernow/internal/models"
)

// DefaultGeocodingURL is the Open-Meteo geocoding search endpoint.
const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// Geocoder resolves a city name to its best-matching place.
type Geocoder interface {
	Search(ctx context.Context, name string) (models.Place, error)
}

// GeocodingClient calls the Open-Meteo geocoding API.
type GeocodingClient struct {
	upstream *upstream
	language string
}

// NewGeocodingClient returns a client for the search endpoint at baseURL.
// language selects the result language and defaults to "en".
func NewGeocodingClient(baseURL, language string, opts Options) (*GeocodingClient, error) {
	u, err := newUpstream(APIGeocoding, baseURL, opts)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = "en"
	}
	return &GeocodingClient{upstream: u, language: language}, nil
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Country   string  `json:"country"`
	} `json:"results"`
}

// Search returns the first result for name. An absent or empty result list is ErrLocationNotFound.
func (c *GeocodingClient) Search(ctx context.Context, name string) (models.Place, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", "1")
	params.Set("language", c.language)
	params.Set("format", "json")

	var resp geocodingResponse
	if err := c.upstream.getJSON(ctx, params, &resp); err != nil {
		return models.Place{}, err
	}
	if len(resp.Results) == 0 {
		return models.Place{}, ErrLocationNotFound
	}

	r := resp.Results[0]
	return models.Place{
		Name:    r.Name,
		Country: r.Country,
		Coordinates: models.Coordinates{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		},
	}, nil
}
