package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kjstillabower/weathernow/internal/models"
)

// ErrCityEmpty is returned when the city is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("city is required")

// ErrCityTooShort is returned when the city length is below the minimum.
var ErrCityTooShort = errors.New("city too short")

// ErrCityTooLong is returned when the city length exceeds the maximum.
var ErrCityTooLong = errors.New("city too long")

// ErrCityInvalidChars is returned when the city contains disallowed characters.
var ErrCityInvalidChars = errors.New("city contains invalid characters")

// ErrInvalidCoordinates is returned for missing, malformed, or out-of-range coordinates.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// ValidateCity trims the input, enforces length bounds (minLen, maxLen in runes),
// and restricts to allowed characters: letters (Unicode), digits, space, comma,
// hyphen, apostrophe, period. Returns the trimmed string or an error suitable for
// 400 INVALID_LOCATION responses. Case is preserved; the place cache normalizes keys.
func ValidateCity(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrCityEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrCityTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '\'', '.':
		return true
	}
	return false
}

// ParseCoordinates parses lat and lon query values. Both must be present, finite,
// and within [-90, 90] and [-180, 180] respectively.
func ParseCoordinates(lat, lon string) (models.Coordinates, error) {
	latitude, err := parseDegrees("lat", lat, 90)
	if err != nil {
		return models.Coordinates{}, err
	}
	longitude, err := parseDegrees("lon", lon, 180)
	if err != nil {
		return models.Coordinates{}, err
	}
	return models.Coordinates{Latitude: latitude, Longitude: longitude}, nil
}

func parseDegrees(name, raw string, limit float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidCoordinates, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidCoordinates, name, raw)
	}
	// NaN fails both comparisons, so test the accepted range.
	if !(v >= -limit && v <= limit) {
		return 0, fmt.Errorf("%w: %s %v out of range", ErrInvalidCoordinates, name, v)
	}
	return v, nil
}
