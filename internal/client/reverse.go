package client

import (
	"context"
	"net/url"

	"github.com/kjstillabower/weathernow/internal/models"
)

// DefaultReverseGeocodingURL is the BigDataCloud client-side reverse geocoding endpoint.
const DefaultReverseGeocodingURL = "https://api.bigdatacloud.net/data/reverse-geocode-client"

// FallbackLocationName is shown when coordinates cannot be named.
const FallbackLocationName = "Current Location"

// ReverseGeocoder names the locality at a point.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, coords models.Coordinates) (string, error)
}

// ReverseGeocodingClient calls the BigDataCloud reverse geocoding API.
type ReverseGeocodingClient struct {
	upstream *upstream
	language string
}

// NewReverseGeocodingClient returns a client for the endpoint at baseURL.
func NewReverseGeocodingClient(baseURL, language string, opts Options) (*ReverseGeocodingClient, error) {
	u, err := newUpstream(APIReverseGeocoding, baseURL, opts)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = "en"
	}
	return &ReverseGeocodingClient{upstream: u, language: language}, nil
}

type reverseGeocodingResponse struct {
	City        string `json:"city"`
	Locality    string `json:"locality"`
	CountryName string `json:"countryName"`
}

// Reverse returns the city, else the locality, else FallbackLocationName.
func (c *ReverseGeocodingClient) Reverse(ctx context.Context, coords models.Coordinates) (string, error) {
	params := url.Values{}
	params.Set("latitude", formatCoordinate(coords.Latitude))
	params.Set("longitude", formatCoordinate(coords.Longitude))
	params.Set("localityLanguage", c.language)

	var resp reverseGeocodingResponse
	if err := c.upstream.getJSON(ctx, params, &resp); err != nil {
		return "", err
	}
	switch {
	case resp.City != "":
		return resp.City, nil
	case resp.Locality != "":
		return resp.Locality, nil
	default:
		return FallbackLocationName, nil
	}
}
