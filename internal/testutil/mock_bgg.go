// Package testutil provides testing utilities for the BGG client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock BGG endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockBGG is a configurable mock XML API server for testing.
//
// Each path can be given a script of responses; the last one repeats once
// the script is exhausted.
type MockBGG struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	scripts  map[string][]MockResponse
	served   map[string]int

	// Tracking
	requestCount      int
	pathCounts        map[string]int
	queries           []url.Values
	lastRequestHeader http.Header
}

// NewMockBGG creates a new mock BGG server.
func NewMockBGG() *MockBGG {
	mock := &MockBGG{
		handlers:   make(map[string]http.HandlerFunc),
		scripts:    make(map[string][]MockResponse),
		served:     make(map[string]int),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.pathCounts[r.URL.Path]++
		mock.queries = append(mock.queries, r.URL.Query())
		mock.lastRequestHeader = r.Header.Clone()

		handler, hasHandler := mock.handlers[r.URL.Path]
		resp, hasScript := mock.nextScripted(r.URL.Path)
		mock.mu.Unlock()

		switch {
		case hasHandler:
			handler(w, r)
		case hasScript:
			writeResponse(w, resp)
		default:
			mock.defaultHandler(w, r)
		}
	}))

	return mock
}

// nextScripted pops the next scripted response for path. Caller holds mu.
func (m *MockBGG) nextScripted(path string) (MockResponse, bool) {
	script, ok := m.scripts[path]
	if !ok || len(script) == 0 {
		return MockResponse{}, false
	}
	i := m.served[path]
	if i >= len(script) {
		i = len(script) - 1
	}
	m.served[path]++
	return script[i], true
}

// URL returns the mock server URL.
func (m *MockBGG) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBGG) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and rewinds scripts.
func (m *MockBGG) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.pathCounts = make(map[string]int)
	m.served = make(map[string]int)
	m.queries = nil
	m.lastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockBGG) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a single repeating response for a path.
func (m *MockBGG) SetResponse(path string, resp MockResponse) {
	m.SetSequence(path, resp)
}

// SetSequence scripts successive responses for a path.
func (m *MockBGG) SetSequence(path string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[path] = resps
	m.served[path] = 0
}

// SetStatuses scripts bare status codes for a path. The body of each
// response is a short XML error naming the status, except for 200 which
// returns okBody.
func (m *MockBGG) SetStatuses(path, okBody string, statuses ...int) {
	resps := make([]MockResponse, 0, len(statuses))
	for _, s := range statuses {
		switch {
		case s == http.StatusOK:
			resps = append(resps, NewXMLResponse(okBody))
		case s == http.StatusAccepted:
			resps = append(resps, NewQueuedResponse())
		case s == http.StatusTooManyRequests:
			resps = append(resps, NewRateLimitResponse())
		default:
			resps = append(resps, MockResponse{
				StatusCode: s,
				Body:       `<error><message>` + http.StatusText(s) + `</message></error>`,
				Headers:    map[string]string{"Content-Type": "text/xml; charset=utf-8"},
			})
		}
	}
	m.SetSequence(path, resps...)
}

// RequestCount returns the number of requests made to the server.
func (m *MockBGG) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// PathCount returns the number of requests made to path.
func (m *MockBGG) PathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// Queries returns the query strings received, in arrival order.
func (m *MockBGG) Queries() []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]url.Values, len(m.queries))
	copy(out, m.queries)
	return out
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockBGG) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// defaultHandler answers unknown paths with 404.
func (m *MockBGG) defaultHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`<error><message>Not Found</message></error>`))
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// NewXMLResponse creates a standard 200 OK XML response.
func NewXMLResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "text/xml; charset=utf-8"},
	}
}

// NewQueuedResponse creates the 202 Accepted BGG sends while it prepares a
// result.
func NewQueuedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusAccepted,
		Body:       `<message>Your request for this collection has been accepted and will be processed.  Please try again later for access.</message>`,
		Headers:    map[string]string{"Content-Type": "text/xml; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `<error><message>Rate limit exceeded.</message></error>`,
		Headers:    map[string]string{"Content-Type": "text/xml; charset=utf-8"},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `<error><message>Internal server error</message></error>`,
		Headers:    map[string]string{"Content-Type": "text/xml; charset=utf-8"},
	}
}
