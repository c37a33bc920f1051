package bgg

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/pagination"
)

// ThingQuery selects one or more items by id.
type ThingQuery struct {
	IDs   []int
	Types []string
	Stats bool

	// Comments and RatingComments page each item's comments independently,
	// up to ToPage (0 for all).
	Comments       bool
	RatingComments bool
	ToPage         int
}

func (q ThingQuery) params(ids []int, page int) url.Values {
	v := url.Values{"id": {joinInts(ids)}}
	if len(q.Types) > 0 {
		v.Set("type", strings.Join(q.Types, ","))
	}
	setFlag(v, "stats", q.Stats)
	if q.Comments || q.RatingComments {
		setFlag(v, "comments", q.Comments)
		setFlag(v, "ratingcomments", q.RatingComments)
		v.Set("page", strconv.Itoa(page))
		v.Set("pagesize", strconv.Itoa(CommentsPageSize))
	}
	return v
}

func (c *Client) fetchThings(ctx context.Context, q ThingQuery, ids []int, page int) client.Outcome[Things] {
	return client.Fetch[Things](ctx, c.core, client.Request{URL: "thing", Params: q.params(ids, page)})
}

// Things fetches items by id. With comments requested, every item's
// comment list is paged on its own, since each item has its own total.
func (c *Client) Things(ctx context.Context, q ThingQuery) pagination.EachResult[Things, int] {
	if len(q.IDs) == 0 {
		return pagination.EachResult[Things, int]{Outcome: invalid[Things]("at least one id is required")}
	}
	if !q.Comments && !q.RatingComments {
		return pagination.EachResult[Things, int]{Outcome: c.fetchThings(ctx, q, q.IDs, 1)}
	}

	return pagination.PaginateEach(ctx, pagination.EachSpec[Things, int, Comment]{
		Name: "thing-comments",
		First: func(ctx context.Context) client.Outcome[Things] {
			return c.fetchThings(ctx, q, q.IDs, 1)
		},
		Fetch: func(ctx context.Context, id int, page int) client.Outcome[Things] {
			return c.fetchThings(ctx, q, []int{id}, page)
		},
		Keys: func(t Things) []int {
			ids := make([]int, 0, len(t.Items))
			for _, item := range t.Items {
				if item.Comments != nil {
					ids = append(ids, item.ID)
				}
			}
			return ids
		},
		Pages: func(t Things, id int) (int, int) {
			item := t.Item(id)
			if item == nil || item.Comments == nil {
				return 1, 1
			}
			return pagination.PagesFromTotal(item.Comments.Page, item.Comments.TotalItems, CommentsPageSize)
		},
		Items: func(t Things, id int) []Comment {
			item := t.Item(id)
			if item == nil || item.Comments == nil {
				return nil
			}
			return item.Comments.Comments
		},
		Merge: func(first Things, items map[int][]Comment) Things {
			for i := range first.Items {
				item := &first.Items[i]
				if comments, ok := items[item.ID]; ok && item.Comments != nil {
					item.Comments.Comments = comments
				}
			}
			return first
		},
	}, q.ToPage)
}
