package bgg

import (
	"context"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/fanout"
)

// Sitemap reads a sitemap index and fetches every per-type sitemap whose
// category is in categories (all known categories when empty), grouping the
// listed URLs by category.
func (c *Client) Sitemap(ctx context.Context, indexURL string, categories ...fanout.Category) fanout.Result[SitemapURL] {
	if indexURL == "" {
		indexURL = DefaultSitemapIndex
	}

	return fanout.Diffuse(ctx, fanout.Collector[SitemapURL]{
		Name:       "sitemap",
		Classifier: c.classifier,
		Index: func(ctx context.Context) client.Outcome[[]string] {
			idx := client.Fetch[SitemapIndex](ctx, c.core, client.Request{URL: indexURL})
			return client.Map(idx, func(s SitemapIndex) ([]string, error) {
				locs := make([]string, len(s.Sitemaps))
				for i, sm := range s.Sitemaps {
					locs[i] = sm.Loc
				}
				return locs, nil
			})
		},
		Fetch: func(ctx context.Context, loc fanout.Location) client.Outcome[[]SitemapURL] {
			set := client.Fetch[URLSet](ctx, c.core, client.Request{URL: loc.URL})
			return client.Map(set, func(u URLSet) ([]SitemapURL, error) { return u.URLs, nil })
		},
	}, categories...)
}
