// Package conditions maps WMO weather interpretation codes, as returned by
// Open-Meteo, to description text and an icon.
package conditions

// Icon names a glyph from the page's icon set and the colour it is drawn in.
type Icon struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var (
	iconSun   = Icon{Name: "sun", Color: "gold"}
	iconCloud = Icon{Name: "cloud", Color: "lightgray"}
	iconRain  = Icon{Name: "cloud-rain", Color: "skyblue"}
	iconSnow  = Icon{Name: "cloud-snow", Color: "lightblue"}
)

const unknown = "Unknown"

var descriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Snow",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Description returns the text for a weather code, or "Unknown".
func Description(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return unknown
}

// IconFor buckets a weather code into one of four icons. Codes above the snow
// range (showers, thunderstorms) fall back to the cloud icon.
func IconFor(code int) Icon {
	switch {
	case code == 0:
		return iconSun
	case code < 0:
		return iconCloud
	case code <= 3:
		return iconCloud
	case code <= 67:
		return iconRain
	case code <= 77:
		return iconSnow
	default:
		return iconCloud
	}
}
