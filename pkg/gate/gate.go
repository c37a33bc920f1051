// Package gate bounds the number of requests a client has in flight.
//
// A Gate never rejects: Acquire waits until a slot is free or the context
// ends. The limit is read from a LimitFunc on every check, so lowering or
// raising it at runtime takes effect for the next admission without
// disturbing requests that already hold a slot.
package gate

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	gateInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bgg_gate_in_flight",
		Help: "Requests currently holding an admission slot",
	})

	gateWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bgg_gate_waits_total",
		Help: "Total number of admissions that had to wait for a free slot",
	})
)

// LimitFunc returns the current concurrency limit.
type LimitFunc func() int

// Gate is a counting semaphore with a runtime-mutable limit.
//
// Waiters park on a broadcast channel that is closed and replaced on every
// release, so no goroutine polls.
type Gate struct {
	limit  LimitFunc
	logger zerolog.Logger

	mu       sync.Mutex
	inFlight int
	freed    chan struct{}

	// capacity waits are logged at most once per interval
	waitLog rate.Sometimes
}

// New creates a gate reading its limit from limit.
func New(limit LimitFunc, logger zerolog.Logger) *Gate {
	return &Gate{
		limit:   limit,
		logger:  logger,
		freed:   make(chan struct{}),
		waitLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
}

// Acquire reserves a slot, waiting for one if the gate is full. The returned
// release func gives the slot back; calling it more than once is a no-op.
// If ctx ends first, Acquire returns ctx.Err() and reserves nothing.
func (g *Gate) Acquire(ctx context.Context) (release func(), err error) {
	waited := false
	for {
		g.mu.Lock()
		limit := g.limit()
		if limit < 1 {
			limit = 1
		}
		if g.inFlight < limit {
			g.inFlight++
			g.mu.Unlock()
			gateInFlight.Inc()
			return g.releaser(), nil
		}
		freed := g.freed
		inFlight := g.inFlight
		g.mu.Unlock()

		if !waited {
			waited = true
			gateWaitsTotal.Inc()
			g.waitLog.Do(func() {
				g.logger.Debug().
					Int("in_flight", inFlight).
					Int("limit", limit).
					Msg("Waiting for admission slot")
			})
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-freed:
		}
	}
}

// Admit runs fn inside a slot. The slot is released when fn returns or panics.
func (g *Gate) Admit(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// InFlight returns the number of reserved slots.
func (g *Gate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

func (g *Gate) releaser() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.inFlight--
			close(g.freed)
			g.freed = make(chan struct{})
			g.mu.Unlock()
			gateInFlight.Dec()
		})
	}
}
