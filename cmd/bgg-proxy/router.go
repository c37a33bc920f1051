package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/bgg-xml-client/pkg/bgg"
	"github.com/Sternrassler/bgg-xml-client/pkg/client"
	"github.com/Sternrassler/bgg-xml-client/pkg/fanout"
	"github.com/Sternrassler/bgg-xml-client/pkg/metrics"
	"github.com/Sternrassler/bgg-xml-client/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var proxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bgg_proxy_requests_total",
	Help: "Proxy HTTP requests by route and status",
}, []string{"route", "status"})

func newRouter(api *bgg.Client, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"in_flight": api.Core().InFlight(),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/plays/:username", func(c *gin.Context) {
		res := api.Plays(c.Request.Context(), bgg.PlaysQuery{
			Username: c.Param("username"),
			MinDate:  c.Query("mindate"),
			MaxDate:  c.Query("maxdate"),
			Subtype:  c.Query("subtype"),
		}, queryInt(c, "to_page"))
		if !res.OK() {
			writeFailure(c, res.Err, res.StatusCode)
			return
		}
		c.JSON(http.StatusOK, gin.H{"plays": res.Value, "skipped_pages": pageFailures(res.Failures)})
	})

	r.GET("/thing", func(c *gin.Context) {
		ids, err := bgg.ParseIDs(c.Query("id"))
		if err != nil {
			writeFailure(c, err, 0)
			return
		}
		res := api.Things(c.Request.Context(), bgg.ThingQuery{
			IDs:            ids,
			Types:          splitList(c.Query("type")),
			Stats:          queryBool(c, "stats"),
			Comments:       queryBool(c, "comments"),
			RatingComments: queryBool(c, "ratingcomments"),
			ToPage:         queryInt(c, "to_page"),
		})
		if !res.OK() {
			writeFailure(c, res.Err, res.StatusCode)
			return
		}
		skipped := make([]gin.H, 0, len(res.Failures))
		for _, f := range res.Failures {
			skipped = append(skipped, gin.H{"id": f.Key, "page": f.Page, "error": f.Err.Error()})
		}
		c.JSON(http.StatusOK, gin.H{"items": res.Value.Items, "skipped_pages": skipped})
	})

	r.GET("/guild/:id", func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			writeFailure(c, bgg.ErrInvalidQuery, 0)
			return
		}
		res := api.GuildMembers(c.Request.Context(), id, queryInt(c, "to_page"))
		if !res.OK() {
			writeFailure(c, res.Err, res.StatusCode)
			return
		}
		c.JSON(http.StatusOK, gin.H{"guild": res.Value, "skipped_pages": pageFailures(res.Failures)})
	})

	r.GET("/sitemap", func(c *gin.Context) {
		index := c.Query("index")
		if index != "" && !sameHost(index, api.Core().Config().API.BaseURL) {
			writeFailure(c, fmt.Errorf("%w: index must be served by the API host", bgg.ErrInvalidQuery), 0)
			return
		}
		var categories []fanout.Category
		for _, name := range c.QueryArray("category") {
			categories = append(categories, fanout.ParseCategory(name))
		}
		res := api.Sitemap(c.Request.Context(), index, categories...)
		if !res.OK() {
			writeFailure(c, res.Err, res.StatusCode)
			return
		}
		skipped := make([]gin.H, 0, len(res.Failures))
		for _, f := range res.Failures {
			skipped = append(skipped, gin.H{"url": f.Location.URL, "category": f.Location.Category, "error": f.Err.Error()})
		}
		c.JSON(http.StatusOK, gin.H{"categories": res.Value, "skipped_locations": skipped})
	})

	r.GET("/search", func(c *gin.Context) {
		out := api.Search(c.Request.Context(), c.Query("query"), queryBool(c, "exact"), splitList(c.Query("type"))...)
		writeOutcome(c, out)
	})

	r.GET("/user/:name", func(c *gin.Context) {
		writeOutcome(c, api.User(c.Request.Context(), c.Param("name")))
	})

	r.GET("/collection/:username", func(c *gin.Context) {
		writeOutcome(c, api.Collection(c.Request.Context(), bgg.CollectionQuery{
			Username: c.Param("username"),
			Subtype:  c.Query("subtype"),
			Own:      queryBool(c, "own"),
			Stats:    queryBool(c, "stats"),
		}))
	})

	return r
}

func writeOutcome[T any](c *gin.Context, out client.Outcome[T]) {
	if !out.OK() {
		writeFailure(c, out.Err, out.StatusCode)
		return
	}
	c.JSON(http.StatusOK, out.Value)
}

// writeFailure maps a failed outcome to a proxy status: bad input is 400,
// an upstream 404 stays 404, cancellation is 504 and the rest is 502.
func writeFailure(c *gin.Context, err error, upstreamStatus int) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, bgg.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, client.ErrContextCancelled):
		status = http.StatusGatewayTimeout
	case upstreamStatus == http.StatusNotFound:
		status = http.StatusNotFound
	}
	body := gin.H{"error": err.Error()}
	if upstreamStatus > 0 {
		body["upstream_status"] = upstreamStatus
	}
	c.JSON(status, body)
}

// sameHost reports whether rawURL is an absolute http(s) URL on base's
// scheme and host.
func sameHost(rawURL, base string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	b, err := url.Parse(base)
	if err != nil {
		return false
	}
	return u.Scheme == b.Scheme && strings.EqualFold(u.Host, b.Host)
}

func pageFailures(failures []pagination.PageFailure) []gin.H {
	out := make([]gin.H, 0, len(failures))
	for _, f := range failures {
		out = append(out, gin.H{"page": f.Page, "error": f.Err.Error()})
	}
	return out
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func queryBool(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		proxyRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()

		logger.Info().
			Str("method", c.Request.Method).
			Str("route", route).
			Str("path", c.Request.URL.Path).
			Int("status_code", status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}
