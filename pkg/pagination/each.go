package pagination

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/logging"
)

// EachSpec describes a resource where every item in one payload has its own
// cursor, such as the comments of each id in a multi-id thing request.
type EachSpec[T any, K cmp.Ordered, I any] struct {
	Name string

	// First retrieves the initial payload holding every key.
	First func(ctx context.Context) client.Outcome[T]

	// Fetch retrieves page n of key's sub-list.
	Fetch func(ctx context.Context, key K, page int) client.Outcome[T]

	// Keys lists the items of the first payload that carry a cursor.
	Keys func(payload T) []K

	// Pages reports the current page and total page count for key.
	Pages func(payload T, key K) (current, total int)

	// Items extracts key's sub-list items from a payload.
	Items func(payload T, key K) []I

	// Merge folds every key's collected items, in page order, into the first
	// payload.
	Merge func(first T, items map[K][]I) T
}

// KeyFailure records a dropped page of one key's sub-list.
type KeyFailure[K any] struct {
	Key  K
	Page int
	Err  error
}

// EachResult is the merged outcome plus skipped pages per key.
type EachResult[T any, K any] struct {
	client.Outcome[T]
	Failures []KeyFailure[K]
}

// PaginateEach runs one independent pagination per key of the first payload
// and joins them all. Keys never share a page counter.
func PaginateEach[T any, K cmp.Ordered, I any](ctx context.Context, spec EachSpec[T, K, I], toPage int) EachResult[T, K] {
	logger := logging.NewLogger(logging.ComponentPagination).With().Str("resource", spec.Name).Logger()
	start := time.Now()

	first := spec.First(ctx)
	if !first.OK() {
		return EachResult[T, K]{Outcome: first}
	}

	keys := spec.Keys(first.Value)
	bufs := make(map[K]*Buffer[int, I], len(keys))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []KeyFailure[K]
	)

	for _, key := range keys {
		current, total := spec.Pages(first.Value, key)
		buf := NewBuffer[int, I]()
		buf.Add(current, spec.Items(first.Value, key))
		bufs[key] = buf

		last := lastPage(total, toPage)
		if last <= current {
			continue
		}

		logger.Debug().
			Interface("key", key).
			Int("total_pages", total).
			Int("last_page", last).
			Msg("Starting per-item page fetch")

		wg.Add(1)
		go func(key K, from, to int) {
			defer wg.Done()
			failed := fetchPages(ctx, logger, spec.Name, from, to, func(ctx context.Context, page int) error {
				out := spec.Fetch(ctx, key, page)
				if !out.OK() {
					return out.Err
				}
				buf.Add(page, spec.Items(out.Value, key))
				return nil
			})
			if len(failed) == 0 {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, f := range failed {
				failures = append(failures, KeyFailure[K]{Key: key, Page: f.Page, Err: f.Err})
			}
		}(key, current+1, last)
	}
	wg.Wait()

	slices.SortFunc(failures, func(a, b KeyFailure[K]) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.Page, b.Page)
	})

	if err := ctx.Err(); err != nil {
		return EachResult[T, K]{
			Outcome:  client.Failure[T](fmt.Errorf("%w: %v", client.ErrContextCancelled, err), 0, nil),
			Failures: failures,
		}
	}

	items := make(map[K][]I, len(bufs))
	for key, buf := range bufs {
		items[key] = buf.Items()
	}

	logger.Info().
		Int("keys", len(keys)).
		Int("failed_pages", len(failures)).
		Dur("duration", time.Since(start)).
		Msg("Per-item fetch complete")

	return EachResult[T, K]{
		Outcome:  client.Success(spec.Merge(first.Value, items), first.StatusCode),
		Failures: failures,
	}
}
