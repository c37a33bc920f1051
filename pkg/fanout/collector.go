// Package fanout fetches an index of sub-resources and then all selected
// sub-resources concurrently, grouping their entries by category.
//
// Outbound traffic is not throttled here: every sub-request goes through the
// client, whose window limiter and concurrency gate bound what actually
// reaches the network, so an index of several hundred locations is safe.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/logging"
	"github.com/Sternrassler/bgg-xml-client/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrIndexFailed wraps the failure of the index request.
var ErrIndexFailed = errors.New("index request failed")

var subRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bgg_fanout_subrequests_total",
	Help: "Fan-out sub-requests by category and result",
}, []string{"category", "result"})

// Collector describes an index-then-diffuse resource with entries of type E.
type Collector[E any] struct {
	// Name labels logs.
	Name string

	// Index returns the sub-resource URLs.
	Index func(ctx context.Context) client.Outcome[[]string]

	// Fetch retrieves the entries of one location.
	Fetch func(ctx context.Context, loc Location) client.Outcome[[]E]

	// Classifier defaults to NewClassifier().
	Classifier *Classifier
}

// LocationFailure records a sub-request that was dropped.
type LocationFailure struct {
	Location Location
	Err      error
}

// Result holds entries per category plus the dropped locations. Outcome
// fails only when the index fails or the operation is cancelled.
type Result[E any] struct {
	client.Outcome[map[Category][]E]
	Failures []LocationFailure
}

// Diffuse fetches the index, keeps the locations whose category is in
// filter (all known categories when filter is empty) and fetches them
// concurrently. Unknown locations are always skipped. Entries keep location
// order within a category.
func Diffuse[E any](ctx context.Context, c Collector[E], filter ...Category) Result[E] {
	logger := logging.NewLogger(logging.ComponentFanOut).With().Str("resource", c.Name).Logger()
	start := time.Now()

	classifier := c.Classifier
	if classifier == nil {
		classifier = NewClassifier()
	}

	index := c.Index(ctx)
	if !index.OK() {
		logger.Warn().Err(index.Err).Msg("Index request failed")
		return Result[E]{Outcome: client.Failure[map[Category][]E](
			fmt.Errorf("%w: %w", ErrIndexFailed, index.Err), index.StatusCode, index.Body)}
	}

	selected := selectLocations(classifier.Locate(index.Value), filter)

	logger.Info().
		Int("locations", len(index.Value)).
		Int("selected", len(selected)).
		Msg("Starting fan-out")

	buffers := make(map[Category]*pagination.Buffer[int, E])
	for _, loc := range selected {
		if _, ok := buffers[loc.Category]; !ok {
			buffers[loc.Category] = pagination.NewBuffer[int, E]()
		}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures = pagination.NewBuffer[int, LocationFailure]()
		reached  = make(map[Category]bool)
	)
	for i, loc := range selected {
		wg.Add(1)
		go func() {
			defer wg.Done()

			out := c.Fetch(ctx, loc)
			if !out.OK() {
				subRequestsTotal.WithLabelValues(string(loc.Category), "failed").Inc()
				logger.Warn().
					Err(out.Err).
					Str("url", loc.URL).
					Str("category", string(loc.Category)).
					Msg("Sub-request failed, skipping")
				failures.Add(i, []LocationFailure{{Location: loc, Err: out.Err}})
				return
			}
			subRequestsTotal.WithLabelValues(string(loc.Category), "ok").Inc()

			buffers[loc.Category].Add(i, out.Value)
			mu.Lock()
			reached[loc.Category] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result[E]{
			Outcome:  client.Failure[map[Category][]E](fmt.Errorf("%w: %v", client.ErrContextCancelled, err), 0, nil),
			Failures: failures.Items(),
		}
	}

	merged := make(map[Category][]E, len(reached))
	for category := range reached {
		merged[category] = buffers[category].Items()
	}

	logger.Info().
		Int("categories", len(merged)).
		Int("failed", failures.Len()).
		Dur("duration", time.Since(start)).
		Msg("Fan-out complete")

	return Result[E]{
		Outcome:  client.Success(merged, index.StatusCode),
		Failures: failures.Items(),
	}
}

// selectLocations drops Unknown locations and, with a non-empty filter,
// every location outside it.
func selectLocations(locs []Location, filter []Category) []Location {
	allowed := make(map[Category]bool, len(filter))
	for _, c := range filter {
		allowed[c] = true
	}

	out := make([]Location, 0, len(locs))
	for _, loc := range locs {
		if loc.Category == Unknown {
			continue
		}
		if len(allowed) > 0 && !allowed[loc.Category] {
			continue
		}
		out = append(out, loc)
	}
	return out
}
