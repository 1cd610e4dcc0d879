package models

import (
	"strconv"
	"time"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the pair as "lat,lon" using the shortest exact representation.
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Place is a geocoded city.
type Place struct {
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
}

// DisplayName returns "name, country", or just the name when the country is unknown.
func (p Place) DisplayName() string {
	if p.Country == "" {
		return p.Name
	}
	return p.Name + ", " + p.Country
}

// Current holds the current_weather block of a forecast response.
type Current struct {
	Temperature   float64 `json:"temperature"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	WeatherCode   int     `json:"weatherCode"`
	Time          string  `json:"time"`
}

// Hourly holds hourly series aligned by index with Time. Null upstream values stay nil.
type Hourly struct {
	Time             []string   `json:"time"`
	Temperature      []*float64 `json:"temperature"`
	RelativeHumidity []*float64 `json:"relativeHumidity"`
	WindSpeed        []*float64 `json:"windSpeed"`
	Visibility       []*float64 `json:"visibility"`
}

// Daily holds daily series aligned by index with Time (YYYY-MM-DD in the location's timezone).
type Daily struct {
	Time           []string   `json:"time"`
	TemperatureMax []*float64 `json:"temperatureMax"`
	TemperatureMin []*float64 `json:"temperatureMin"`
	WeatherCode    []*int     `json:"weatherCode"`
}

// Forecast is the decoded weather response for one pair of coordinates.
type Forecast struct {
	Coordinates      Coordinates `json:"coordinates"`
	Timezone         string      `json:"timezone"`
	UTCOffsetSeconds int         `json:"utcOffsetSeconds"`
	Current          Current     `json:"current"`
	Hourly           *Hourly     `json:"hourly,omitempty"`
	Daily            *Daily      `json:"daily,omitempty"`
}

// Report is a forecast merged with the resolved display name. It is built fresh
// on every successful fetch and never stored.
type Report struct {
	Location string `json:"location"`
	Forecast
	FetchedAt time.Time `json:"fetchedAt"`
}
