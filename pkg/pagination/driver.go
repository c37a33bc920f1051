package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bgg_pagination_pages_total",
	Help: "Follow-up pages fetched by resource and result",
}, []string{"resource", "result"})

// Spec describes one paginated resource. T is the decoded page payload and
// I the item type collected across pages.
type Spec[T any, I any] struct {
	// Name labels logs and metrics ("plays", "guild").
	Name string

	// Fetch retrieves a single 1-based page through the client.
	Fetch func(ctx context.Context, page int) client.Outcome[T]

	// Pages reports the current page and total page count of a payload.
	Pages func(payload T) (current, total int)

	// Items extracts the items of one page.
	Items func(payload T) []I

	// Merge builds the result from the first page and all collected items.
	Merge func(first T, items []I) T
}

// PageFailure records a follow-up page that was dropped.
type PageFailure struct {
	Page int
	Err  error
}

// Result is the merged outcome plus any pages that were skipped. Outcome
// fails only when the first page fails or the operation is cancelled.
type Result[T any] struct {
	client.Outcome[T]
	Failures []PageFailure
}

// PagesFromTotal derives (current, total pages) from a total item count and
// a fixed page size. A zero current page is treated as page 1.
func PagesFromTotal(current, totalItems, pageSize int) (int, int) {
	if current < 1 {
		current = 1
	}
	if pageSize < 1 || totalItems < 1 {
		return current, current
	}
	return current, (totalItems + pageSize - 1) / pageSize
}

// lastPage bounds total by toPage; toPage <= 0 means unbounded.
func lastPage(total, toPage int) int {
	if toPage > 0 && toPage < total {
		return toPage
	}
	return total
}

// Paginate fetches the first page, then every remaining page up to toPage
// concurrently, and merges the items in page order. Failed follow-up pages
// are logged and dropped.
func Paginate[T, I any](ctx context.Context, spec Spec[T, I], toPage int) Result[T] {
	logger := logging.NewLogger(logging.ComponentPagination).With().Str("resource", spec.Name).Logger()
	start := time.Now()

	first := spec.Fetch(ctx, 1)
	if !first.OK() {
		return Result[T]{Outcome: first}
	}

	current, total := spec.Pages(first.Value)
	last := lastPage(total, toPage)

	buf := NewBuffer[int, I]()
	buf.Add(current, spec.Items(first.Value))

	if last <= current {
		logger.Debug().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return Result[T]{Outcome: client.Success(spec.Merge(first.Value, buf.Items()), first.StatusCode)}
	}

	logger.Info().
		Int("total_pages", total).
		Int("last_page", last).
		Msg("Starting parallel page fetch")

	failures := fetchPages(ctx, logger, spec.Name, current+1, last, func(ctx context.Context, page int) error {
		out := spec.Fetch(ctx, page)
		if !out.OK() {
			return out.Err
		}
		buf.Add(page, spec.Items(out.Value))
		return nil
	})

	if err := ctx.Err(); err != nil {
		return Result[T]{
			Outcome:  client.Failure[T](fmt.Errorf("%w: %v", client.ErrContextCancelled, err), 0, nil),
			Failures: failures,
		}
	}

	logger.Info().
		Int("pages", last-current+1-len(failures)).
		Int("total", last-current+1).
		Int("items", buf.Len()).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return Result[T]{
		Outcome:  client.Success(spec.Merge(first.Value, buf.Items()), first.StatusCode),
		Failures: failures,
	}
}

// fetchPages runs fetch for pages from..to, one goroutine each, and waits
// for all of them. Failures are collected in page order.
func fetchPages(ctx context.Context, logger zerolog.Logger, resource string, from, to int, fetch func(context.Context, int) error) []PageFailure {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failed   = NewBuffer[int, PageFailure]()
		finished int
	)
	total := to - from + 1

	for page := from; page <= to; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()

			if err := fetch(ctx, page); err != nil {
				pagesFetchedTotal.WithLabelValues(resource, "failed").Inc()
				logger.Warn().
					Err(err).
					Int("page", page).
					Msg("Page fetch failed, skipping")
				failed.Add(page, []PageFailure{{Page: page, Err: err}})
				return
			}
			pagesFetchedTotal.WithLabelValues(resource, "ok").Inc()

			mu.Lock()
			finished++
			n := finished
			mu.Unlock()

			// Progress logging every 50 pages
			if n%50 == 0 {
				logger.Info().
					Int("fetched", n).
					Int("total", total).
					Float64("progress_pct", float64(n)/float64(total)*100).
					Msg("Fetch progress")
			}
		}(page)
	}
	wg.Wait()

	return failed.Items()
}
