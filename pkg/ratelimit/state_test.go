package ratelimit

import (
	"testing"
	"time"
)

func TestWindowState_Expired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	size := 10 * time.Second

	tests := []struct {
		name     string
		state    WindowState
		expected bool
	}{
		{
			name:     "never opened",
			state:    WindowState{},
			expected: true,
		},
		{
			name:     "fresh window",
			state:    WindowState{WindowStart: now.Add(-1 * time.Second), Count: 3},
			expected: false,
		},
		{
			name:     "exactly at rollover",
			state:    WindowState{WindowStart: now.Add(-size), Count: 3},
			expected: true,
		},
		{
			name:     "long expired",
			state:    WindowState{WindowStart: now.Add(-time.Hour), Count: 3},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Expired(now, size); got != tt.expected {
				t.Errorf("Expired() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWindowState_Reserve(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	size := 10 * time.Second
	limit := 2

	var s WindowState

	r := s.Reserve(start, size, limit)
	if !r.Admitted || r.Count != 1 {
		t.Fatalf("first reservation = %+v, want admitted with count 1", r)
	}
	if !s.WindowStart.Equal(start) {
		t.Errorf("WindowStart = %v, want %v", s.WindowStart, start)
	}

	r = s.Reserve(start.Add(2*time.Second), size, limit)
	if !r.Admitted || r.Count != 2 {
		t.Fatalf("second reservation = %+v, want admitted with count 2", r)
	}

	r = s.Reserve(start.Add(4*time.Second), size, limit)
	if r.Admitted {
		t.Fatal("third reservation admitted beyond the limit")
	}
	if r.Wait != 6*time.Second {
		t.Errorf("Wait = %v, want 6s", r.Wait)
	}
	if s.Count != limit {
		t.Errorf("rejected reservation changed Count to %d", s.Count)
	}

	// rollover resets the count and opens the window at the admission time
	rolled := start.Add(size)
	r = s.Reserve(rolled, size, limit)
	if !r.Admitted || r.Count != 1 {
		t.Fatalf("reservation after rollover = %+v, want admitted with count 1", r)
	}
	if !s.WindowStart.Equal(rolled) {
		t.Errorf("WindowStart after rollover = %v, want %v", s.WindowStart, rolled)
	}
}

func TestWindowState_TimeUntilRollover(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	size := 5 * time.Second

	tests := []struct {
		name     string
		state    WindowState
		expected time.Duration
	}{
		{"no window", WindowState{}, 0},
		{"active window", WindowState{WindowStart: now.Add(-2 * time.Second)}, 3 * time.Second},
		{"expired window", WindowState{WindowStart: now.Add(-6 * time.Second)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.TimeUntilRollover(now, size); got != tt.expected {
				t.Errorf("TimeUntilRollover() = %v, want %v", got, tt.expected)
			}
		})
	}
}
