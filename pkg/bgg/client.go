// Package bgg exposes typed BoardGameGeek XML API2 endpoints on top of the
// retrying client, the page driver and the fan-out collector.
package bgg

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/fanout"
)

// Page sizes fixed by the API.
const (
	PlaysPageSize        = 100
	CommentsPageSize     = 100
	GuildMembersPageSize = 25
)

// DefaultSitemapIndex is the BGG sitemap root.
const DefaultSitemapIndex = "https://boardgamegeek.com/sitemapindex"

// ErrInvalidQuery is returned before any request is made.
var ErrInvalidQuery = errors.New("invalid query")

// Client is the typed BGG API.
type Client struct {
	core       *client.Client
	classifier *fanout.Classifier
}

// New wraps core.
func New(core *client.Client) *Client {
	return &Client{core: core, classifier: fanout.NewClassifier()}
}

// Core returns the underlying transport.
func (c *Client) Core() *client.Client {
	return c.core
}

func invalid[T any](msg string) client.Outcome[T] {
	return client.Failure[T](fmt.Errorf("%w: %s", ErrInvalidQuery, msg), 0, nil)
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setFlag(v url.Values, key string, on bool) {
	if on {
		v.Set(key, "1")
	}
}
