package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultMaxBodySize = 32 * 1024 * 1024 // 32MB

// Request is one logical call against the API.
type Request struct {
	// Method defaults to GET.
	Method string

	// URL is either absolute or a path relative to the configured base URL
	// (e.g. "plays").
	URL string

	Params url.Values
}

// Response is the raw upstream answer.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Sender performs one network attempt. Implementations must honor ctx.
type Sender interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// HTTPDoer captures the subset of *http.Client the sender relies on, so
// tests can inject fakes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSender is the net/http Sender.
type HTTPSender struct {
	doer        HTTPDoer
	userAgent   func() string
	maxBodySize int64
}

// NewHTTPSender creates a sender on doer. userAgent is read per request.
func NewHTTPSender(doer HTTPDoer, userAgent func() string) *HTTPSender {
	if doer == nil {
		doer = NewHTTPClient()
	}
	return &HTTPSender{doer: doer, userAgent: userAgent, maxBodySize: defaultMaxBodySize}
}

// NewHTTPClient returns an http.Client with connect and idle timeouts.
// The total per-attempt timeout is applied through the request context.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}

// Send implements Sender. A body over the size limit yields
// ErrResponseTooLarge together with the response status and headers.
func (s *HTTPSender) Send(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := req.URL
	if len(req.Params) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/xml")
	if s.userAgent != nil {
		if ua := s.userAgent(); ua != "" {
			httpReq.Header.Set("User-Agent", ua)
		}
	}

	httpResp, err := s.doer.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, s.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > s.maxBodySize {
		return &Response{StatusCode: httpResp.StatusCode, Headers: httpResp.Header},
			fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, s.maxBodySize)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}
