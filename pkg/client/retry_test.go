package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffPolicy_Delay(t *testing.T) {
	tests := []struct {
		name     string
		policy   backoffPolicy
		retry    int
		expected time.Duration
	}{
		{
			name:     "first retry",
			policy:   backoffPolicy{base: 2, unit: time.Second, maxDelay: 30 * time.Second},
			retry:    1,
			expected: 2 * time.Second,
		},
		{
			name:     "third retry",
			policy:   backoffPolicy{base: 2, unit: time.Second, maxDelay: 30 * time.Second},
			retry:    3,
			expected: 8 * time.Second,
		},
		{
			name:     "capped at max delay",
			policy:   backoffPolicy{base: 2, unit: time.Second, maxDelay: 5 * time.Second},
			retry:    3,
			expected: 5 * time.Second,
		},
		{
			name:     "huge exponent stays capped",
			policy:   backoffPolicy{base: 2, unit: time.Second, maxDelay: 30 * time.Second},
			retry:    200,
			expected: 30 * time.Second,
		},
		{
			name:     "zero unit retries immediately",
			policy:   backoffPolicy{base: 2, unit: 0, maxDelay: 30 * time.Second},
			retry:    4,
			expected: 0,
		},
		{
			name:     "base one is constant",
			policy:   backoffPolicy{base: 1, unit: 250 * time.Millisecond},
			retry:    7,
			expected: 250 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.delay(tt.retry); got != tt.expected {
				t.Errorf("delay(%d) = %v, want %v", tt.retry, got, tt.expected)
			}
		})
	}
}

func TestBackoffPolicy_DelayJitter(t *testing.T) {
	p := backoffPolicy{base: 2, unit: 100 * time.Millisecond, maxDelay: time.Minute, jitter: 50 * time.Millisecond}

	for i := 0; i < 100; i++ {
		d := p.delay(1)
		if d < 200*time.Millisecond || d >= 250*time.Millisecond {
			t.Fatalf("delay(1) = %v, want in [200ms, 250ms)", d)
		}
	}
}

func TestBackoffPolicy_JitterNeverExceedsCap(t *testing.T) {
	p := backoffPolicy{base: 2, unit: time.Second, maxDelay: 2 * time.Second, jitter: time.Second}

	for i := 0; i < 100; i++ {
		if d := p.delay(1); d > 2*time.Second {
			t.Fatalf("delay(1) = %v, exceeds cap", d)
		}
	}
}

func TestWaitBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := waitBackoff(ctx, 10*time.Second)

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Expected ErrContextCancelled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("waitBackoff took %v, should return promptly after cancel", elapsed)
	}
}

func TestWaitBackoff_ZeroDelay(t *testing.T) {
	if err := waitBackoff(context.Background(), 0); err != nil {
		t.Errorf("waitBackoff(0) = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitBackoff(ctx, 0); !errors.Is(err, ErrContextCancelled) {
		t.Errorf("waitBackoff(0) on cancelled ctx = %v, want ErrContextCancelled", err)
	}
}
