package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kjstillabower/weathernow/internal/observability"
)

// API labels used in metrics, spans and error messages.
const (
	APIForecast         = "forecast"
	APIGeocoding        = "geocoding"
	APIReverseGeocoding = "reverse_geocoding"
)

const (
	userAgent       = "weathernow/1.0"
	maxResponseSize = 4 << 20
	tracerName      = "github.com/kjstillabower/weathernow/internal/client"
)

var (
	ErrInvalidURL       = errors.New("invalid upstream URL")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
)

// StatusError reports a non-2xx upstream response. It unwraps to one of the
// sentinel errors so callers can use errors.Is.
type StatusError struct {
	API        string
	StatusCode int
	err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %v: HTTP %d", e.API, e.err, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.err }

// transportError marks failures that happened before a response arrived.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "http request failed: " + e.err.Error() }

func (e *transportError) Unwrap() error { return e.err }

// Options tunes the shared HTTP behaviour of every upstream client.
// RetryAttempts of 1 (the default) disables retries.
type Options struct {
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 1
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 100 * time.Millisecond
	}
	if o.RetryMaxDelay <= 0 {
		o.RetryMaxDelay = 2 * time.Second
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// upstream performs GET requests against one JSON API.
type upstream struct {
	api     string
	baseURL *url.URL
	opts    Options
	tracer  trace.Tracer
}

func newUpstream(api, rawURL string, opts Options) (*upstream, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidURL, api, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s: %q", ErrInvalidURL, api, rawURL)
	}
	return &upstream{
		api:     api,
		baseURL: u,
		opts:    opts.withDefaults(),
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// getJSON issues GET baseURL?params and decodes the body into out, retrying
// transport failures and 5xx responses up to the configured attempts.
func (u *upstream) getJSON(ctx context.Context, params url.Values, out interface{}) error {
	ctx, span := u.tracer.Start(ctx, u.api+" GET", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("upstream.api", u.api), attribute.String("http.host", u.baseURL.Host))

	var lastErr error
attempts:
	for attempt := 0; attempt < u.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.WithLabelValues(u.api).Inc()
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attempts
			case <-time.After(u.backoff(attempt)):
			}
		}

		lastErr = u.call(ctx, params, out)
		if lastErr == nil {
			return nil
		}
		if !u.isRetryable(ctx, lastErr) {
			break attempts
		}
	}

	observability.UpstreamErrorsTotal.WithLabelValues(u.api, string(CategorizeError(lastErr))).Inc()
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return lastErr
}

func (u *upstream) call(ctx context.Context, params url.Values, out interface{}) error {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, u.opts.Timeout)
	defer cancel()

	reqURL := *u.baseURL
	reqURL.RawQuery = params.Encode()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(u.api, "error").Inc()
		return fmt.Errorf("%s: build request: %w", u.api, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	otel.GetTextMapPropagator().Inject(reqCtx, propagation.HeaderCarrier(req.Header))

	resp, err := u.opts.HTTPClient.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(u.api, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(u.api, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("%s: %w", u.api, &transportError{err: err})
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(u.api, status).Inc()
	observability.UpstreamDuration.WithLabelValues(u.api, status).Observe(time.Since(start).Seconds())
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if err := u.checkStatus(resp); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return err
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("%s: parse response: %w", u.api, err)
	}
	return nil
}

func (u *upstream) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return NewStatusError(u.api, resp.StatusCode)
}

// NewStatusError builds the StatusError for a non-2xx response from api.
func NewStatusError(api string, statusCode int) *StatusError {
	sentinel := ErrUpstreamFailure
	switch statusCode {
	case http.StatusNotFound:
		sentinel = ErrLocationNotFound
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	}
	return &StatusError{API: api, StatusCode: statusCode, err: sentinel}
}

// isRetryable allows another attempt for transport failures and 5xx only.
// 429 is not retried and a cancelled caller context stops the loop.
func (u *upstream) isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	var te *transportError
	return errors.As(err, &te)
}

func (u *upstream) backoff(attempt int) time.Duration {
	delay := float64(u.opts.RetryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(u.opts.RetryMaxDelay) {
		delay = float64(u.opts.RetryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
