package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCity_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input, 1, 100)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrCityEmpty) {
				t.Errorf("error = %v, want ErrCityEmpty", err)
			}
		})
	}
}

func TestValidateCity_TooShort(t *testing.T) {
	_, err := ValidateCity("x", 2, 100)
	if !errors.Is(err, ErrCityTooShort) {
		t.Errorf("error = %v, want ErrCityTooShort", err)
	}
}

func TestValidateCity_TooLong(t *testing.T) {
	_, err := ValidateCity(strings.Repeat("a", 101), 1, 100)
	if !errors.Is(err, ErrCityTooLong) {
		t.Errorf("error = %v, want ErrCityTooLong", err)
	}
}

func TestValidateCity_LengthCountsRunes(t *testing.T) {
	// 5 runes, 10 bytes.
	if _, err := ValidateCity("ÄÖÜäö", 1, 5); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}

func TestValidateCity_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "sea/ttle"},
		{"backslash", "sea\\ttle"},
		{"question", "sea?ttle"},
		{"hash", "sea#ttle"},
		{"control", "sea\x00ttle"},
		{"percent", "sea%ttle"},
		{"ampersand", "sea&ttle"},
		{"angle", "<script>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input, 1, 100)
			if !errors.Is(err, ErrCityInvalidChars) {
				t.Errorf("error = %v, want ErrCityInvalidChars", err)
			}
		})
	}
}

func TestValidateCity_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Paris", "Paris"},
		{"with space", "New York", "New York"},
		{"comma", "London, UK", "London, UK"},
		{"hyphen", "Stratford-upon-Avon", "Stratford-upon-Avon"},
		{"apostrophe", "L'Aquila", "L'Aquila"},
		{"period", "St. Louis", "St. Louis"},
		{"trimmed", "  Tokyo  ", "Tokyo"},
		{"unicode", "Zürich", "Zürich"},
		{"non-latin", "東京", "東京"},
		{"digits", "Area51", "Area51"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateCity(tc.input, 1, 100)
			if err != nil {
				t.Fatalf("error = %v, want nil", err)
			}
			if got != tc.want {
				t.Errorf("ValidateCity(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseCoordinates_Valid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon string
		wantLat  float64
		wantLon  float64
	}{
		{"paris", "48.8566", "2.3522", 48.8566, 2.3522},
		{"negative", "-33.8688", "-151.2093", -33.8688, -151.2093},
		{"bounds", "90", "-180", 90, -180},
		{"integers", "0", "0", 0, 0},
		{"padded", " 10.5 ", " 20 ", 10.5, 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCoordinates(tc.lat, tc.lon)
			if err != nil {
				t.Fatalf("ParseCoordinates() error = %v, want nil", err)
			}
			if got.Latitude != tc.wantLat || got.Longitude != tc.wantLon {
				t.Errorf("ParseCoordinates() = %v, want %v,%v", got, tc.wantLat, tc.wantLon)
			}
		})
	}
}

func TestParseCoordinates_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon string
	}{
		{"missing lat", "", "2.35"},
		{"missing lon", "48.85", ""},
		{"not a number", "north", "2.35"},
		{"lat too high", "90.1", "0"},
		{"lat too low", "-91", "0"},
		{"lon too high", "0", "180.5"},
		{"nan", "NaN", "0"},
		{"inf", "0", "+Inf"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCoordinates(tc.lat, tc.lon)
			if !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("ParseCoordinates(%q, %q) error = %v, want ErrInvalidCoordinates", tc.lat, tc.lon, err)
			}
		})
	}
}
