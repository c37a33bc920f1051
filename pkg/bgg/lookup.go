package bgg

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
)

// Search looks up items by name. types narrows the result ("boardgame",
// "boardgameexpansion", ...).
func (c *Client) Search(ctx context.Context, query string, exact bool, types ...string) client.Outcome[SearchResults] {
	if strings.TrimSpace(query) == "" {
		return invalid[SearchResults]("query is required")
	}
	v := url.Values{"query": {query}}
	if len(types) > 0 {
		v.Set("type", strings.Join(types, ","))
	}
	setFlag(v, "exact", exact)
	return client.Fetch[SearchResults](ctx, c.core, client.Request{URL: "search", Params: v})
}

// User fetches a public user profile.
func (c *Client) User(ctx context.Context, name string) client.Outcome[User] {
	if name == "" {
		return invalid[User]("name is required")
	}
	return client.Fetch[User](ctx, c.core, client.Request{URL: "user", Params: url.Values{"name": {name}}})
}

// CollectionQuery selects a user's collection.
type CollectionQuery struct {
	Username string
	Subtype  string
	Own      bool
	Stats    bool
	IDs      []int
}

// Collection fetches a user's collection. BGG queues collection requests
// and answers 202 until the export is ready; the client retries those.
func (c *Client) Collection(ctx context.Context, q CollectionQuery) client.Outcome[Collection] {
	if q.Username == "" {
		return invalid[Collection]("username is required")
	}
	v := url.Values{"username": {q.Username}}
	setIf(v, "subtype", q.Subtype)
	setFlag(v, "own", q.Own)
	setFlag(v, "stats", q.Stats)
	if len(q.IDs) > 0 {
		v.Set("id", joinInts(q.IDs))
	}
	return client.Fetch[Collection](ctx, c.core, client.Request{URL: "collection", Params: v})
}

// ParseIDs parses a comma separated id list ("13,822").
func ParseIDs(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q", ErrInvalidQuery, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
