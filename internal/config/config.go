package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheInMemory  = "in_memory"
	CacheMemcached = "memcached"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	RequestTimeout time.Duration

	ForecastURL         string
	GeocodingURL        string
	ReverseGeocodingURL string
	UpstreamTimeout     time.Duration
	Language            string

	DefaultCity   string
	CityMinLength int
	CityMaxLength int
	WarmPlaces    []string
	PlaceCacheTTL time.Duration
	CacheBackend  string // "in_memory" or "memcached"
	CacheCleanup  time.Duration

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout       time.Duration
	InFlightTimeout       time.Duration
	InFlightCheckInterval time.Duration

	DegradedWindow   time.Duration
	DegradedErrorPct int

	TrackedLocations []string

	TracingServiceName string
	ZipkinURL          string

	CORSAllowedOrigins []string
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Upstream struct {
		ForecastURL         string `yaml:"forecast_url"`
		GeocodingURL        string `yaml:"geocoding_url"`
		ReverseGeocodingURL string `yaml:"reverse_geocoding_url"`
		Timeout             string `yaml:"timeout"`
		Language            string `yaml:"language"`
	} `yaml:"upstream"`

	App struct {
		DefaultCity   string   `yaml:"default_city"`
		CityMinLength int      `yaml:"city_min_length"`
		CityMaxLength int      `yaml:"city_max_length"`
		WarmPlaces    []string `yaml:"warm_places"`
	} `yaml:"app"`

	Cache struct {
		Backend         string `yaml:"backend"`
		TTL             string `yaml:"ttl"`
		CleanupInterval string `yaml:"cleanup_interval"`
		Memcached       struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"inflight_timeout"`
		InFlightCheckInterval string `yaml:"inflight_check_interval"`
	} `yaml:"shutdown"`

	Health struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`

	Metrics struct {
		TrackedLocations []string `yaml:"tracked_locations"`
	} `yaml:"metrics"`

	Tracing struct {
		ServiceName string `yaml:"service_name"`
		ZipkinURL   string `yaml:"zipkin_url"`
	} `yaml:"tracing"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads an optional .env file and then config/{ENV_NAME}.yaml (default dev)
// relative to the working directory. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}
	return LoadFrom(filepath.Join(cwd, "config"))
}

// LoadFrom reads {dir}/{ENV_NAME}.yaml and applies environment overrides.
// Variables already set in the environment win over .env values.
func LoadFrom(dir string) (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := filepath.Join(dir, env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "8080")

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.ForecastURL = firstNonEmpty(fc.Upstream.ForecastURL, "https://api.open-meteo.com/v1/forecast")
	cfg.GeocodingURL = firstNonEmpty(fc.Upstream.GeocodingURL, "https://geocoding-api.open-meteo.com/v1/search")
	cfg.ReverseGeocodingURL = firstNonEmpty(fc.Upstream.ReverseGeocodingURL, "https://api.bigdatacloud.net/data/reverse-geocode-client")
	cfg.UpstreamTimeout = parseDurationOrZero(fc.Upstream.Timeout, 5*time.Second)
	cfg.Language = firstNonEmpty(strings.TrimSpace(fc.Upstream.Language), "en")

	cfg.DefaultCity = firstNonEmpty(strings.TrimSpace(os.Getenv("DEFAULT_CITY")), strings.TrimSpace(fc.App.DefaultCity), "New York")
	cfg.CityMinLength = fc.App.CityMinLength
	if cfg.CityMinLength <= 0 {
		cfg.CityMinLength = 1
	}
	cfg.CityMaxLength = fc.App.CityMaxLength
	if cfg.CityMaxLength <= 0 {
		cfg.CityMaxLength = 100
	}
	cfg.WarmPlaces = fc.App.WarmPlaces

	cfg.PlaceCacheTTL = parseDuration(fc.Cache.TTL, 24*time.Hour)
	cfg.CacheCleanup = parseDuration(fc.Cache.CleanupInterval, 10*time.Minute)
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = CacheInMemory
	}
	cfg.MemcachedAddrs = firstNonEmpty(strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS")), strings.TrimSpace(fc.Cache.Memcached.Addrs), "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.InFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.InFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}

	cfg.TrackedLocations = fc.Metrics.TrackedLocations

	cfg.TracingServiceName = firstNonEmpty(fc.Tracing.ServiceName, "weathernow")
	cfg.ZipkinURL = firstNonEmpty(strings.TrimSpace(os.Getenv("ZIPKIN_URL")), strings.TrimSpace(fc.Tracing.ZipkinURL))

	cfg.CORSAllowedOrigins = fc.CORS.AllowedOrigins
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MemcachedAddrList splits MemcachedAddrs on commas, dropping blanks.
func (c *Config) MemcachedAddrList() []string {
	var out []string
	for _, a := range strings.Split(c.MemcachedAddrs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// Ensures UpstreamTimeout is positive, RequestTimeout exceeds UpstreamTimeout,
// upstream URLs are absolute, and CacheBackend is a valid value.
// Auto-adjusts RequestTimeout if needed.
func validate(cfg *Config) error {
	if cfg.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.UpstreamTimeout {
		cfg.RequestTimeout = cfg.UpstreamTimeout + time.Second
	}
	if cfg.CityMinLength > cfg.CityMaxLength {
		return fmt.Errorf("app.city_min_length (%d) exceeds app.city_max_length (%d)", cfg.CityMinLength, cfg.CityMaxLength)
	}
	for name, raw := range map[string]string{
		"upstream.forecast_url":          cfg.ForecastURL,
		"upstream.geocoding_url":         cfg.GeocodingURL,
		"upstream.reverse_geocoding_url": cfg.ReverseGeocodingURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
		}
	}
	switch cfg.CacheBackend {
	case CacheInMemory:
	case CacheMemcached:
		if len(cfg.MemcachedAddrList()) == 0 {
			return fmt.Errorf("cache.memcached.addrs required for memcached backend")
		}
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.DegradedErrorPct > 100 {
		return fmt.Errorf("health.degraded_error_pct must be at most 100, got %d", cfg.DegradedErrorPct)
	}
	return nil
}
