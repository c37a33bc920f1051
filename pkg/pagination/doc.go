// Package pagination fetches every page of a paginated XML API resource
// and merges them into one value.
//
// BGG reports pagination inside the payload rather than in headers: most
// resources carry a total item count and use a fixed page size, a few
// carry an explicit current/total pair. A Spec tells the driver how to read
// those fields for one resource.
//
// Example usage:
//
//	res := pagination.Paginate(ctx, pagination.Spec[Plays, Play]{
//		Name:  "plays",
//		Fetch: func(ctx context.Context, page int) client.Outcome[Plays] { ... },
//		Pages: func(p Plays) (int, int) { return pagination.PagesFromTotal(p.Page, p.Total, 100) },
//		Items: func(p Plays) []Play { return p.Plays },
//		Merge: func(first Plays, all []Play) Plays { first.Plays = all; return first },
//	}, 0)
//
// The driver:
//   - Fetches the first page and returns its failure unchanged
//   - Spawns one goroutine per remaining page, up to toPage
//   - Relies on the client's gates to bound actual outbound traffic
//   - Drops failed follow-up pages and reports them in Result.Failures
//   - Merges items in page order
//
// Resources whose items each carry their own page count (comments on a
// multi-id thing request) use PaginateEach, which runs one independent page
// set per item and joins them all.
package pagination
