// Package ratelimit bounds the number of requests a client issues per
// fixed time window.
//
// A window opens at the first admission after the previous one expired and
// admits at most Limit requests; callers arriving after that wait until the
// window rolls over. Window state lives in a Store: the in-memory store keeps
// it per client instance, the Redis store lets cooperating processes share
// one window under a common key.
package ratelimit

import (
	"time"
)

// WindowState is the counter of one fixed window.
type WindowState struct {
	// WindowStart is when the active window opened. Zero means no window
	// has been opened yet.
	WindowStart time.Time `json:"window_start"`

	// Count is the number of admissions in the active window.
	Count int `json:"count"`
}

// Reservation is the outcome of one check-and-increment.
type Reservation struct {
	Admitted bool

	// Wait is the time left until the window rolls over. Only meaningful
	// when Admitted is false.
	Wait time.Duration

	// Count is the window count after this reservation.
	Count int
}

// Expired reports whether the window has run its full size at now.
func (s *WindowState) Expired(now time.Time, size time.Duration) bool {
	return s.WindowStart.IsZero() || now.Sub(s.WindowStart) >= size
}

// Reserve rolls the window if it expired, then admits if Count < limit.
// Callers must serialize access.
func (s *WindowState) Reserve(now time.Time, size time.Duration, limit int) Reservation {
	if s.Expired(now, size) {
		s.WindowStart = now
		s.Count = 0
	}

	if s.Count < limit {
		s.Count++
		return Reservation{Admitted: true, Count: s.Count}
	}

	return Reservation{Wait: s.TimeUntilRollover(now, size), Count: s.Count}
}

// TimeUntilRollover returns the duration until the active window expires,
// or 0 if it already has.
func (s *WindowState) TimeUntilRollover(now time.Time, size time.Duration) time.Duration {
	if s.Expired(now, size) {
		return 0
	}
	return s.WindowStart.Add(size).Sub(now)
}
