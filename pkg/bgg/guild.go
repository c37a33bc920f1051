package bgg

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/pagination"
)

// GuildMembers fetches a guild with its member list, paging 25 members at a
// time up to toPage (0 for all).
func (c *Client) GuildMembers(ctx context.Context, id int, toPage int) pagination.Result[Guild] {
	if id <= 0 {
		return pagination.Result[Guild]{Outcome: invalid[Guild]("guild id must be positive")}
	}

	return pagination.Paginate(ctx, pagination.Spec[Guild, Member]{
		Name: "guild",
		Fetch: func(ctx context.Context, page int) client.Outcome[Guild] {
			return client.Fetch[Guild](ctx, c.core, client.Request{
				URL: "guild",
				Params: url.Values{
					"id":      {strconv.Itoa(id)},
					"members": {"1"},
					"page":    {strconv.Itoa(page)},
				},
			})
		},
		Pages: func(g Guild) (int, int) {
			return pagination.PagesFromTotal(g.Members.Page, g.Members.Count, GuildMembersPageSize)
		},
		Items: func(g Guild) []Member { return g.Members.Members },
		Merge: func(first Guild, items []Member) Guild {
			first.Members.Members = items
			return first
		},
	}, toPage)
}
