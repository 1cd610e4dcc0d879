// Package traffic keeps sliding windows of weather request outcomes. The health
// endpoint reads the error rate from it to decide whether the upstream APIs are
// degraded.
package traffic

import (
	"sync"
	"time"
)

// DefaultRetention bounds how long outcomes are kept regardless of query window.
const DefaultRetention = 5 * time.Minute

// Outcome classifies a finished weather request.
type Outcome int

const (
	// Success is a request that produced a report.
	Success Outcome = iota
	// Failure is a request whose upstream fetch failed.
	Failure
	// Denied is a request rejected by the inbound rate limiter.
	Denied
)

// Counts is a snapshot of outcomes within a window.
type Counts struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Denied  int `json:"denied"`
}

// Total returns all outcomes in the snapshot.
func (c Counts) Total() int {
	return c.Success + c.Failure + c.Denied
}

// Tracker maintains sliding windows of outcome timestamps. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	now       func() time.Time
	retention time.Duration
	times     [3][]time.Time
}

// NewTracker returns a Tracker keeping outcomes for retention (DefaultRetention when <= 0).
func NewTracker(retention time.Duration) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Tracker{now: time.Now, retention: retention}
}

// Record notes one outcome at the current time.
func (t *Tracker) Record(o Outcome) {
	if o < Success || o > Denied {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.times[o] = append(t.times[o], now)
	t.pruneLocked(now)
}

// RecordSuccess records a request that produced a report.
func (t *Tracker) RecordSuccess() { t.Record(Success) }

// RecordFailure records a request whose upstream fetch failed.
func (t *Tracker) RecordFailure() { t.Record(Failure) }

// RecordDenied records a rate-limit denial (429).
func (t *Tracker) RecordDenied() { t.Record(Denied) }

// Counts returns the outcomes recorded within window.
func (t *Tracker) Counts(window time.Duration) Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	return Counts{
		Success: countSince(t.times[Success], cutoff),
		Failure: countSince(t.times[Failure], cutoff),
		Denied:  countSince(t.times[Denied], cutoff),
	}
}

// ErrorRate returns (failures, total) within the window. Denials are excluded from total.
func (t *Tracker) ErrorRate(window time.Duration) (failures, total int) {
	c := t.Counts(window)
	return c.Failure, c.Failure + c.Success
}

// Degraded reports whether failures make up at least thresholdPct percent of the
// requests in window. An empty window or a non-positive threshold is never degraded.
func (t *Tracker) Degraded(window time.Duration, thresholdPct int) bool {
	if window <= 0 || thresholdPct <= 0 {
		return false
	}
	failures, total := t.ErrorRate(window)
	if total == 0 {
		return false
	}
	return failures*100 >= thresholdPct*total
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.times {
		t.times[i] = nil
	}
}

func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// pruneLocked drops timestamps older than retention. Slices are append-ordered.
// Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.retention)
	for k, times := range t.times {
		i := 0
		for ; i < len(times) && times[i].Before(cutoff); i++ {
		}
		if i > 0 {
			t.times[k] = append(times[:0], times[i:]...)
		}
	}
}
