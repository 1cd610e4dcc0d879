package lifecycle

import "testing"

func TestIsShuttingDown_DefaultFalse(t *testing.T) {
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true, want false by default")
	}
}

func TestSetShuttingDown_True(t *testing.T) {
	SetShuttingDown(true)
	defer SetShuttingDown(false)
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false after SetShuttingDown(true), want true")
	}
	if got := Current(); got != ShuttingDown {
		t.Errorf("Current() = %v, want %v", got, ShuttingDown)
	}
}

func TestSetShuttingDown_False(t *testing.T) {
	SetShuttingDown(true)
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true after SetShuttingDown(false), want false")
	}
	if got := Current(); got != Serving {
		t.Errorf("Current() = %v, want %v", got, Serving)
	}
}

func TestMarkServing_DoesNotClearShutdown(t *testing.T) {
	SetShuttingDown(true)
	defer SetShuttingDown(false)
	MarkServing()
	if !IsShuttingDown() {
		t.Error("MarkServing() cleared the shutdown flag")
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		p    Phase
		want string
	}{
		{Starting, "starting"},
		{Serving, "serving"},
		{ShuttingDown, "shutting-down"},
		{Phase(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.p.String(); got != tc.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tc.p, got, tc.want)
		}
	}
}

func TestUptime_Positive(t *testing.T) {
	if Uptime() <= 0 {
		t.Error("Uptime() <= 0, want positive")
	}
}
