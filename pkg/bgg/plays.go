package bgg

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/pagination"
)

// PlaysQuery selects logged plays by user or by item.
type PlaysQuery struct {
	Username string
	// ID with Type selects plays of one item instead of one user.
	ID      int
	Type    string
	MinDate string
	MaxDate string
	Subtype string
}

func (q PlaysQuery) params(page int) url.Values {
	v := url.Values{}
	setIf(v, "username", q.Username)
	if q.ID > 0 {
		v.Set("id", strconv.Itoa(q.ID))
	}
	setIf(v, "type", q.Type)
	setIf(v, "mindate", q.MinDate)
	setIf(v, "maxdate", q.MaxDate)
	setIf(v, "subtype", q.Subtype)
	v.Set("page", strconv.Itoa(page))
	return v
}

// Plays fetches every page of plays up to toPage (0 for all) and merges
// them. Pages are derived from the total attribute and a page size of 100.
func (c *Client) Plays(ctx context.Context, q PlaysQuery, toPage int) pagination.Result[Plays] {
	if q.Username == "" && q.ID == 0 {
		return pagination.Result[Plays]{Outcome: invalid[Plays]("username or id is required")}
	}

	return pagination.Paginate(ctx, pagination.Spec[Plays, Play]{
		Name: "plays",
		Fetch: func(ctx context.Context, page int) client.Outcome[Plays] {
			return client.Fetch[Plays](ctx, c.core, client.Request{URL: "plays", Params: q.params(page)})
		},
		Pages: func(p Plays) (int, int) {
			return pagination.PagesFromTotal(p.Page, p.Total, PlaysPageSize)
		},
		Items: func(p Plays) []Play { return p.Plays },
		Merge: func(first Plays, items []Play) Plays {
			first.Plays = items
			return first
		},
	}, toPage)
}
