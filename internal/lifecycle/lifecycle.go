// Package lifecycle holds the process-wide serving phase read by the health handler.
package lifecycle

import (
	"sync/atomic"
	"time"
)

// Phase is where the process is in its lifetime.
type Phase int32

const (
	// Starting means dependencies are still being wired.
	Starting Phase = iota
	// Serving means the HTTP server accepts traffic.
	Serving
	// ShuttingDown means a signal arrived and the server is draining.
	ShuttingDown
)

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Serving:
		return "serving"
	case ShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

var (
	phase     atomic.Int32
	startedAt atomic.Int64
)

func init() {
	startedAt.Store(time.Now().UnixNano())
}

// MarkServing records that the server is accepting traffic.
func MarkServing() {
	phase.CompareAndSwap(int32(Starting), int32(Serving))
}

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT received.
// Health handler returns 503 with status shutting-down while true.
// Clearing it returns the process to Serving.
func SetShuttingDown(v bool) {
	if v {
		phase.Store(int32(ShuttingDown))
		return
	}
	phase.Store(int32(Serving))
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return Current() == ShuttingDown
}

// Current returns the current phase.
func Current() Phase {
	return Phase(phase.Load())
}

// Uptime returns the time since the process started.
func Uptime() time.Duration {
	return time.Since(time.Unix(0, startedAt.Load()))
}
