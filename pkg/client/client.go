// Package client provides the BoardGameGeek XML API transport with
// windowed rate limiting, bounded concurrency and retries.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/bgg-xml-client/pkg/config"
	"github.com/Sternrassler/bgg-xml-client/pkg/gate"
	"github.com/Sternrassler/bgg-xml-client/pkg/logging"
	"github.com/Sternrassler/bgg-xml-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for BGG client operations.
var (
	bggRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgg_requests_total",
		Help: "Total BGG attempts by endpoint and status",
	}, []string{"endpoint", "status"})

	bggRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bgg_request_duration_seconds",
		Help:    "BGG logical request duration in seconds by endpoint, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	bggErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgg_errors_total",
		Help: "Total BGG attempt errors by class",
	}, []string{"class"})

	decodeErrorsTotal = bggErrorsTotal.WithLabelValues(string(ErrorClassDecode))
)

// Client is the retrying BGG transport. Every attempt, retries included,
// passes the window limiter and then the concurrency gate before it reaches
// the Sender. All tunables are read from the config source at use time.
type Client struct {
	source  *config.Source
	sender  Sender
	doer    HTTPDoer
	store   ratelimit.Store
	limiter *ratelimit.Limiter
	gate    *gate.Gate
	base    zerolog.Logger
	logger  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithSender replaces the network layer entirely.
func WithSender(s Sender) Option {
	return func(c *Client) { c.sender = s }
}

// WithHTTPClient sets the HTTP doer used by the default sender.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.doer = doer }
}

// WithWindowStore sets the window state backend. The default is a private
// in-memory window.
func WithWindowStore(store ratelimit.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithRedis shares the request window through Redis under the configured
// key prefix. Clients using the same key share one window.
func WithRedis(redisClient *redis.Client, key string) Option {
	return func(c *Client) { c.store = ratelimit.NewRedisStore(redisClient, key) }
}

// WithLogger sets the logger the client, gate and window limiter derive
// their component loggers from. It defaults to the global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.base = logger }
}

// New creates a client bound to source.
func New(source *config.Source, opts ...Option) (*Client, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: config source is required", config.ErrInvalidConfig)
	}

	c := &Client{
		source: source,
		base:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithComponent(c.base, logging.ComponentClient)

	if c.store == nil {
		c.store = ratelimit.NewMemoryStore()
	}
	if c.sender == nil {
		c.sender = NewHTTPSender(c.doer, func() string {
			return c.source.Load().API.UserAgent
		})
	}

	c.limiter = ratelimit.NewLimiter(c.store, func() (time.Duration, int) {
		a := c.source.Load().Admission
		return a.WindowSize, a.WindowLimit
	}, logging.WithComponent(c.base, logging.ComponentRateLimit))

	c.gate = gate.New(func() int {
		return c.source.Load().Admission.ConcurrencyLimit
	}, logging.WithComponent(c.base, logging.ComponentGate))

	return c, nil
}

// Config returns a snapshot of the current configuration.
func (c *Client) Config() config.Config {
	return c.source.Load()
}

// InFlight reports the number of attempts currently holding a gate slot.
func (c *Client) InFlight() int {
	return c.gate.InFlight()
}

// attempt is the result of one pass through the gates and the network.
type attempt struct {
	status int
	body   []byte
	class  ErrorClass
	err    error

	// terminal stops the retry loop regardless of class
	terminal bool
}

// Execute performs a logical request. Transient failures (202, 429, 5xx and
// network errors) are retried with exponential backoff; the last response
// body is kept on the failure outcome.
func (c *Client) Execute(ctx context.Context, req Request) Outcome[[]byte] {
	cfg := c.source.Load()

	target, err := resolveURL(cfg.API.BaseURL, req.URL)
	if err != nil {
		return Failure[[]byte](err, 0, nil)
	}
	req.URL = target
	endpoint := endpointLabel(target)

	startTime := time.Now()
	defer func() {
		bggRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", target).
		Msg("Executing BGG request")

	for n := 0; ; n++ {
		res := c.do(ctx, req, endpoint)
		if res.err == nil {
			if n > 0 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", n+1).
					Msg("Request succeeded after retry")
			}
			return Success(res.body, res.status)
		}

		if res.terminal || !shouldRetry(res.class) {
			return Failure[[]byte](res.err, res.status, res.body)
		}

		// settings are re-read so a config change applies to the next retry
		policy := policyFrom(c.source.Load().Retry)
		if n >= policy.maxRetries {
			bggRetryExhaustedTotal.WithLabelValues(string(res.class)).Inc()
			c.logger.Warn().
				Str("error_class", string(res.class)).
				Int("status_code", res.status).
				Str("url", target).
				Int("attempts", n+1).
				Msg("Retry attempts exhausted")
			return Failure[[]byte](
				fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, n+1, res.err),
				res.status, res.body)
		}

		delay := policy.delay(n + 1)
		bggRetriesTotal.WithLabelValues(string(res.class)).Inc()
		bggRetryBackoffSeconds.WithLabelValues(string(res.class)).Observe(delay.Seconds())

		c.logger.Warn().
			Int("status_code", res.status).
			Str("url", target).
			Str("error_class", string(res.class)).
			Int("attempt", n+1).
			Dur("backoff", delay).
			Msg("Transient BGG error, retrying")

		if err := waitBackoff(ctx, delay); err != nil {
			c.logger.Warn().
				Str("error_class", string(res.class)).
				Int("attempt", n+1).
				Msg("Context cancelled during retry backoff")
			return Failure[[]byte](err, res.status, res.body)
		}
	}
}

// do runs a single attempt: window, gate, then the network under the
// per-attempt timeout.
func (c *Client) do(ctx context.Context, req Request, endpoint string) attempt {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return attempt{err: fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err()), terminal: true}
		}
		// shared store outage: treat like a network failure
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		bggErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return attempt{err: fmt.Errorf("rate limit check: %w", err), class: ErrorClassNetwork}
	}

	release, err := c.gate.Acquire(ctx)
	if err != nil {
		return attempt{err: fmt.Errorf("%w: %v", ErrContextCancelled, err), terminal: true}
	}
	defer release()

	attemptCtx, cancel := context.WithTimeout(ctx, c.source.Load().API.RequestTimeout)
	defer cancel()

	resp, err := c.sender.Send(attemptCtx, req)
	if errors.Is(err, ErrResponseTooLarge) {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.logger.Warn().Err(err).Str("url", req.URL).Int("status_code", status).Msg("Response body over size limit")
		bggErrorsTotal.WithLabelValues(string(ErrorClassTooLarge)).Inc()
		bggRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
		return attempt{
			status: status,
			class:  ErrorClassTooLarge,
			err: &UpstreamError{
				StatusCode: status,
				ErrorClass: ErrorClassTooLarge,
				URL:        req.URL,
				Err:        err,
			},
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return attempt{err: fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err()), terminal: true}
		}
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		bggErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		bggRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return attempt{
			class: ErrorClassNetwork,
			err: &UpstreamError{
				ErrorClass: ErrorClassNetwork,
				URL:        req.URL,
				Err:        err,
			},
		}
	}

	bggRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	class := classifyStatus(resp.StatusCode)
	if class == "" {
		return attempt{status: resp.StatusCode, body: resp.Body}
	}

	bggErrorsTotal.WithLabelValues(string(class)).Inc()
	return attempt{
		status: resp.StatusCode,
		body:   resp.Body,
		class:  class,
		err: &UpstreamError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			URL:        req.URL,
			Body:       resp.Body,
		},
	}
}

// resolveURL joins a relative request path onto base.
func resolveURL(base, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("request URL is required")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse request URL: %w", err)
	}
	if u.IsAbs() {
		return ref, nil
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/"), nil
}

// endpointLabel keeps metric cardinality bounded by using the last path
// segment ("plays", "thing", ...).
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "unknown"
	}
	return path.Base(u.Path)
}

// Fetch executes req and decodes the XML body into T.
func Fetch[T any](ctx context.Context, c *Client, req Request) Outcome[T] {
	return Decode[T](c.Execute(ctx, req))
}
