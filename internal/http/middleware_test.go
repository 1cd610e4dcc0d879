package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weathernow/internal/observability"
	"github.com/kjstillabower/weathernow/internal/traffic"
)

func TestCorrelationIDMiddleware_Generated(t *testing.T) {
	var gotID string
	var gotLogger *zap.Logger
	core, logs := observer.New(zapcore.InfoLevel)

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.New(core)))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		gotID = observability.CorrelationID(r.Context())
		gotLogger = observability.LoggerFromContext(r.Context())
		gotLogger.Info("inside")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	if gotID == "" {
		t.Fatal("correlation ID not stored in context")
	}
	if got := w.Header().Get("X-Correlation-ID"); got != gotID {
		t.Errorf("X-Correlation-ID header = %q, want %q", got, gotID)
	}
	entries := logs.FilterMessage("inside").All()
	if len(entries) != 1 || entries[0].ContextMap()["correlation_id"] != gotID {
		t.Errorf("request logger missing correlation_id field: %+v", entries)
	}
}

func TestCorrelationIDMiddleware_Propagated(t *testing.T) {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Correlation-ID", "client-provided-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Correlation-ID"); got != "client-provided-id" {
		t.Errorf("X-Correlation-ID = %q, want client-provided-id", got)
	}
}

func TestMetricsMiddleware_TracksInFlight(t *testing.T) {
	var during int64
	router := mux.NewRouter()
	router.Use(MetricsMiddleware)
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		during = InFlightCount()
		w.WriteHeader(http.StatusTeapot)
	})

	before := InFlightCount()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	if during != before+1 {
		t.Errorf("in-flight during request = %d, want %d", during, before+1)
	}
	if after := InFlightCount(); after != before {
		t.Errorf("in-flight after request = %d, want %d", after, before)
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
}

func TestGetRoute_UsesTemplates(t *testing.T) {
	var got string
	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = getRoute(r)
			next.ServeHTTP(w, r)
		})
	})
	noop := func(w http.ResponseWriter, r *http.Request) {}
	weather := router.PathPrefix("/weather").Subrouter()
	weather.HandleFunc("/{city}", noop)
	weather.HandleFunc("", noop)
	router.HandleFunc("/health", noop)

	tests := []struct {
		path string
		want string
	}{
		{"/weather/Tokyo", "/weather/{city}"},
		{"/weather/New%20York", "/weather/{city}"},
		{"/weather?lat=1&lon=2", "/weather"},
		{"/health", "/health"},
	}
	for _, tc := range tests {
		got = ""
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", tc.path, nil))
		if got != tc.want {
			t.Errorf("getRoute(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestGetRoute_Unmatched(t *testing.T) {
	r := httptest.NewRequest("GET", "/some/random/path", nil)
	if got := getRoute(r); got != "other" {
		t.Errorf("getRoute() = %q, want other", got)
	}
}

func TestStatusRecorder_FirstWriteWins(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusInternalServerError)
	if rec.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want %d", rec.statusCode, http.StatusNotFound)
	}
	if got := statusCodeString(rec.statusCode); got != "4xx" {
		t.Errorf("statusCodeString() = %q, want 4xx", got)
	}
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))

	if !ok {
		t.Fatal("request context has no deadline")
	}
	if remaining := time.Until(deadline); remaining > time.Second || remaining <= 0 {
		t.Errorf("deadline in %v, want within 1s", remaining)
	}
}

func TestTimeoutMiddleware_ZeroDisabled(t *testing.T) {
	h := TimeoutMiddleware(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			t.Error("zero timeout set a deadline")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))
}

func TestRateLimitMiddleware_Denies(t *testing.T) {
	tracker := traffic.NewTracker(0)
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.Use(RateLimitMiddleware(limiter, tracker))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("GET", "/x", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("GET", "/x", nil))

	if first.Code != http.StatusOK {
		t.Errorf("first status = %d, want 200", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.Code)
	}
	env := decodeError(t, second)
	if env.Error.Code != CodeRateLimited {
		t.Errorf("error code = %q, want %q", env.Error.Code, CodeRateLimited)
	}
	if env.Error.RequestID == "" {
		t.Error("requestId empty, want correlation ID")
	}
	if c := tracker.Counts(time.Minute); c.Denied != 1 {
		t.Errorf("tracker denied = %d, want 1", c.Denied)
	}
}

func TestRateLimitMiddleware_NilLimiterPassesThrough(t *testing.T) {
	called := false
	h := RateLimitMiddleware(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/x", nil))
	if !called {
		t.Error("handler not called with nil limiter")
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/weather/Paris", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q, want https://example.com", got)
		}
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/weather/Paris", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/weather/Paris", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code >= 300 {
			t.Errorf("preflight status = %d, want 2xx", w.Code)
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET" {
			t.Errorf("Access-Control-Allow-Methods = %q, want GET", got)
		}
	})

	t.Run("plain options stops before handler", func(t *testing.T) {
		var called bool
		h := CORSMiddleware([]string{"https://example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		req := httptest.NewRequest("OPTIONS", "/weather/Paris", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if called {
			t.Error("handler ran for a non-preflight OPTIONS request")
		}
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
		}
		if got := w.Header().Get("Allow"); got != "GET, OPTIONS" {
			t.Errorf("Allow = %q, want GET, OPTIONS", got)
		}
	})
}

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	var hasCtx bool
	h := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasCtx = r.Context() != context.Background()
		w.WriteHeader(http.StatusAccepted)
	}))
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if !hasCtx {
		t.Error("handler did not receive a derived context")
	}
}
