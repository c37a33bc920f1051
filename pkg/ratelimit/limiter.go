package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	windowAdmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bgg_window_admissions_total",
		Help: "Total number of requests admitted by the window limiter",
	})

	windowWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bgg_window_waits_total",
		Help: "Total number of times a request waited for the window to roll over",
	})

	windowWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bgg_window_wait_seconds",
		Help:    "Time spent waiting for window rollover",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// Settings returns the current window size and limit.
type Settings func() (size time.Duration, limit int)

// Limiter admits at most limit requests per window.
type Limiter struct {
	store    Store
	settings Settings
	logger   zerolog.Logger

	waitLog rate.Sometimes
}

// NewLimiter creates a limiter over store. settings is read on every check.
func NewLimiter(store Store, settings Settings, logger zerolog.Logger) *Limiter {
	return &Limiter{
		store:    store,
		settings: settings,
		logger:   logger,
		waitLog:  rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
}

// Wait blocks until the active window has spare capacity and takes one
// admission from it. It returns ctx.Err() if ctx ends while waiting, or the
// store error if the window could not be read.
func (l *Limiter) Wait(ctx context.Context) error {
	var started time.Time
	for {
		size, limit := l.settings()
		res, err := l.store.Reserve(ctx, size, limit)
		if err != nil {
			return fmt.Errorf("window reservation: %w", err)
		}
		if res.Admitted {
			windowAdmissionsTotal.Inc()
			if !started.IsZero() {
				windowWaitSeconds.Observe(time.Since(started).Seconds())
			}
			return nil
		}

		if started.IsZero() {
			started = time.Now()
			windowWaitsTotal.Inc()
		}
		l.waitLog.Do(func() {
			l.logger.Info().
				Int("limit", limit).
				Dur("window_size", size).
				Dur("wait", res.Wait).
				Msg("Window limit reached, waiting for rollover")
		})

		if err := sleep(ctx, res.Wait); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// yield so a rollover computed at the boundary is re-evaluated
		d = time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
