package client

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Sternrassler/bgg-xml-client/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	bggRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgg_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	bggRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bgg_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	bggRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgg_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// backoffPolicy is a snapshot of the retry settings taken when a retry is
// scheduled.
type backoffPolicy struct {
	maxRetries int
	base       float64
	unit       time.Duration
	maxDelay   time.Duration
	jitter     time.Duration
}

func policyFrom(cfg config.RetryConfig) backoffPolicy {
	return backoffPolicy{
		maxRetries: cfg.MaxRetries,
		base:       cfg.BackoffBase,
		unit:       cfg.BackoffUnit,
		maxDelay:   cfg.BackoffMaxDelay,
		jitter:     cfg.Jitter,
	}
}

// delay returns the wait before retry n (n >= 1): base^n units plus up to
// jitter of noise, capped at maxDelay.
func (p backoffPolicy) delay(n int) time.Duration {
	f := math.Pow(p.base, float64(n)) * float64(p.unit)
	var d time.Duration
	if p.maxDelay > 0 && f >= float64(p.maxDelay) {
		return p.maxDelay
	} else if f >= math.MaxInt64 {
		d = time.Duration(math.MaxInt64)
	} else {
		d = time.Duration(f)
	}
	if p.jitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.jitter)))
	}
	if p.maxDelay > 0 && d > p.maxDelay {
		d = p.maxDelay
	}
	return d
}

// waitBackoff blocks for d or until ctx is done.
func waitBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
