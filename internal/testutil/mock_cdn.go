// Package testutil provides testing utilities for the currency API client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
)

// MockResponse defines the behavior for one mocked resource.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockCDN is a configurable stand-in for both currency API mirrors. Each
// mirror is served under its own path prefix on a single httptest server:
//
//	/{endpoint}/{date}/v1/currencies/{code}.json
type MockCDN struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses map[string]MockResponse
	down      map[endpoint.Endpoint]int

	// Tracking
	requestCount  int
	perEndpoint   map[endpoint.Endpoint]int
	requestPaths  []string
	lastUserAgent string
}

// NewMockCDN creates a new mock CDN server.
func NewMockCDN() *MockCDN {
	mock := &MockCDN{
		responses:   make(map[string]MockResponse),
		down:        make(map[endpoint.Endpoint]int),
		perEndpoint: make(map[endpoint.Endpoint]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *MockCDN) handle(w http.ResponseWriter, r *http.Request) {
	e := endpoint.Endpoint(strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)[0])

	m.mu.Lock()
	m.requestCount++
	m.perEndpoint[e]++
	m.requestPaths = append(m.requestPaths, r.URL.Path)
	m.lastUserAgent = r.Header.Get("User-Agent")
	status, isDown := m.down[e]
	resp, exists := m.responses[r.URL.Path]
	m.mu.Unlock()

	if isDown {
		w.WriteHeader(status)
		return
	}

	if !exists {
		http.NotFound(w, r)
		return
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// URL returns the mock server URL.
func (m *MockCDN) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCDN) Close() {
	m.server.Close()
}

// Templates returns mirror URL templates pointing at the mock server.
func (m *MockCDN) Templates() map[endpoint.Endpoint]string {
	templates := make(map[endpoint.Endpoint]string, 2)
	for _, e := range endpoint.All() {
		templates[e] = m.server.URL + "/" + string(e) + "/%s/" + endpoint.APIVersion
	}
	return templates
}

// Resolver returns an endpoint resolver pointing at the mock server.
func (m *MockCDN) Resolver() *endpoint.Resolver {
	r, err := endpoint.NewResolver(m.Templates())
	if err != nil {
		panic(err)
	}
	return r
}

// ResourcePath is the server path a mirror serves a resource under.
func ResourcePath(e endpoint.Endpoint, date, path string) string {
	return "/" + string(e) + "/" + date + "/" + endpoint.APIVersion + path + ".json"
}

// SetResponse configures the response for a resource on one mirror.
func (m *MockCDN) SetResponse(e endpoint.Endpoint, date, path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[ResourcePath(e, date, path)] = resp
}

// SetRates serves a rate document for base on one mirror.
func (m *MockCDN) SetRates(e endpoint.Endpoint, date, base string, rates map[string]float64) {
	published := date
	if published == "latest" {
		published = time.Now().UTC().Format("2006-01-02")
	}
	m.SetResponse(e, date, "/currencies/"+base, NewRatesResponse(published, base, rates))
}

// SetRatesEverywhere serves the same rate document on both mirrors.
func (m *MockCDN) SetRatesEverywhere(date, base string, rates map[string]float64) {
	for _, e := range endpoint.All() {
		m.SetRates(e, date, base, rates)
	}
}

// SetDown makes every request to a mirror answer with status.
func (m *MockCDN) SetDown(e endpoint.Endpoint, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down[e] = status
}

// SetUp reverts SetDown.
func (m *MockCDN) SetUp(e endpoint.Endpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.down, e)
}

// Reset clears all tracking counters.
func (m *MockCDN) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.perEndpoint = make(map[endpoint.Endpoint]int)
	m.requestPaths = nil
	m.lastUserAgent = ""
}

// RequestCount returns the number of requests made to the server.
func (m *MockCDN) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestCountFor returns the number of requests made to one mirror.
func (m *MockCDN) RequestCountFor(e endpoint.Endpoint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.perEndpoint[e]
}

// RequestPaths returns the paths requested so far, in order.
func (m *MockCDN) RequestPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requestPaths...)
}

// LastUserAgent returns the User-Agent of the most recent request.
func (m *MockCDN) LastUserAgent() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUserAgent
}

// NewRatesResponse creates a 200 OK rate document.
func NewRatesResponse(date, base string, rates map[string]float64) MockResponse {
	body, err := json.Marshal(map[string]any{
		"date": date,
		base:   rates,
	})
	if err != nil {
		panic(err)
	}
	return MockResponse{StatusCode: http.StatusOK, Body: string(body)}
}

// NewCurrenciesResponse creates a 200 OK currency list.
func NewCurrenciesResponse(names map[string]string) MockResponse {
	body, err := json.Marshal(names)
	if err != nil {
		panic(err)
	}
	return MockResponse{StatusCode: http.StatusOK, Body: string(body)}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewMalformedResponse creates a 200 OK response whose body is not a JSON object.
func NewMalformedResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: `["not", "an", "object"]`}
}
