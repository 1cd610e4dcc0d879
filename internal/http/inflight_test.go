package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestInFlightTracker_ConcurrentUpdates(t *testing.T) {
	tracker := &InFlightTracker{}
	const workers = 64

	var started sync.WaitGroup
	started.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer started.Done()
			tracker.Increment()
		}()
	}
	started.Wait()
	if got := tracker.Count(); got != workers {
		t.Fatalf("Count() after %d increments = %d", workers, got)
	}

	var finished sync.WaitGroup
	finished.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer finished.Done()
			tracker.Decrement()
		}()
	}
	finished.Wait()
	if got := tracker.Count(); got != 0 {
		t.Errorf("Count() after draining = %d, want 0", got)
	}
}

func TestInFlightTracker_WaitForZero(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
	}{
		{name: "explicit interval", interval: 5 * time.Millisecond},
		{name: "zero interval uses default", interval: 0},
		{name: "negative interval uses default", interval: -time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracker := &InFlightTracker{}
			tracker.Increment()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- tracker.WaitForZero(ctx, tc.interval) }()

			time.Sleep(20 * time.Millisecond)
			tracker.Decrement()

			select {
			case err := <-done:
				if err != nil {
					t.Errorf("WaitForZero() error = %v, want nil", err)
				}
			case <-time.After(time.Second):
				t.Fatal("WaitForZero did not return after the count reached zero")
			}
		})
	}
}

func TestInFlightTracker_WaitForZero_AlreadyIdle(t *testing.T) {
	tracker := &InFlightTracker{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tracker.WaitForZero(ctx, 0); err != nil {
		t.Errorf("WaitForZero() on an idle tracker = %v, want nil", err)
	}
}

func TestInFlightTracker_WaitForZero_ContextCanceled(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tracker.WaitForZero(ctx, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForZero() error = %v, want context.DeadlineExceeded", err)
	}
	if got := tracker.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

// TestWaitForInFlight_DrainsMiddlewareRequests verifies a request passing through
// MetricsMiddleware is visible to the shutdown drain until it completes.
func TestWaitForInFlight_DrainsMiddlewareRequests(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	}))

	go h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/weather/Paris", nil))
	<-entered

	if got := InFlightCount(); got < 1 {
		t.Fatalf("InFlightCount() during request = %d, want >= 1", got)
	}

	short, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := WaitForInFlight(short, 0); err == nil {
		t.Fatal("WaitForInFlight() returned nil while a request was in flight")
	}

	close(release)
	ctx, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	if err := WaitForInFlight(ctx, 0); err != nil {
		t.Errorf("WaitForInFlight() after request = %v, want nil", err)
	}
}
