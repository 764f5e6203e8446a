// Package client provides the currency API client: cache-first lookups
// against two CDN mirrors with a single fallback between them.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/currency-api-client/pkg/cache"
	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Version is the client release, sent in the default User-Agent.
const Version = "v1.0.1"

// DefaultUserAgent identifies the client to the mirrors.
const DefaultUserAgent = "currency-api-client/" + Version

const tracerName = "github.com/Sternrassler/currency-api-client/pkg/client"

// Prometheus metrics for upstream requests.
var (
	fxRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	fxRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fx_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	fxErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// Client is the currency API client. It is safe for concurrent use.
type Client struct {
	// mu serializes setters; readers only load the snapshot.
	mu    sync.Mutex
	state atomic.Pointer[settings]

	defaultHTTP  *http.Client
	resolver     *endpoint.Resolver
	userAgent    string
	fetchTimeout time.Duration // upper bound for one shared upstream fetch
	group        singleflight.Group
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// settings is an immutable configuration snapshot. Setters replace it whole.
type settings struct {
	preferred  endpoint.Endpoint
	httpClient *http.Client
	cache      *cache.Adapter
}

// Config holds the client configuration.
type Config struct {
	// PreferredEndpoint is the mirror tried first (default: jsdelivr)
	PreferredEndpoint endpoint.Endpoint

	// User-Agent header sent with every request
	UserAgent string

	// HTTPClient replaces the default transport when set
	HTTPClient *http.Client

	// Timeouts for the default transport
	Timeout        time.Duration // Whole request
	ConnectTimeout time.Duration // TCP connect

	// Store is the cache backend (default: file store under the temp dir)
	Store cache.Store

	// CacheTTL is the default entry lifetime (default: 24h)
	CacheTTL time.Duration

	// Resolver overrides the mirror URL templates (self-hosted mirrors, tests)
	Resolver *endpoint.Resolver

	// Logger overrides the global zerolog logger
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		PreferredEndpoint: endpoint.JSDelivr,
		UserAgent:         DefaultUserAgent,
		Timeout:           10 * time.Second,
		ConnectTimeout:    5 * time.Second,
		CacheTTL:          cache.DefaultTTL,
	}
}

// New creates a new client. Missing transport and cache are built here,
// not on first use.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout < 0 || cfg.ConnectTimeout < 0 {
		return nil, fmt.Errorf("timeouts must not be negative")
	}

	preferred := cfg.PreferredEndpoint
	if preferred == "" {
		preferred = endpoint.JSDelivr
	}
	if !preferred.Valid() {
		return nil, fmt.Errorf("%w: %q", endpoint.ErrUnknownEndpoint, preferred)
	}

	store := cfg.Store
	if store == nil {
		fileStore, err := cache.DefaultFileStore()
		if err != nil {
			return nil, fmt.Errorf("create default cache: %w", err)
		}
		store = fileStore
	}

	resolver := cfg.Resolver
	if resolver == nil {
		resolver = endpoint.DefaultResolver()
	}

	logger := log.With().Str("component", "currency-api-client").Logger()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "currency-api-client").Logger()
	}

	defaultHTTP := newHTTPClient(cfg.Timeout, cfg.ConnectTimeout)
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTP
	}

	// Two attempts, one per mirror.
	fetchTimeout := 2 * cfg.Timeout
	if fetchTimeout <= 0 {
		fetchTimeout = 2 * DefaultConfig().Timeout
	}

	c := &Client{
		defaultHTTP:  defaultHTTP,
		resolver:     resolver,
		userAgent:    cfg.UserAgent,
		fetchTimeout: fetchTimeout,
		logger:       logger,
		tracer:       otel.Tracer(tracerName),
	}
	c.state.Store(&settings{
		preferred:  preferred,
		httpClient: httpClient,
		cache:      cache.NewAdapter(store, cfg.CacheTTL),
	})

	return c, nil
}

// newHTTPClient builds the default transport with fixed connect and request timeouts.
func newHTTPClient(timeout, connectTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// update applies fn to a copy of the current snapshot and publishes it.
func (c *Client) update(fn func(s *settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := *c.state.Load()
	fn(&next)
	c.state.Store(&next)
}

// SetPreferredEndpoint selects the mirror tried first. Names outside the two
// known mirrors are rejected.
func (c *Client) SetPreferredEndpoint(name string) error {
	e, err := endpoint.Parse(name)
	if err != nil {
		return &ValidationError{Field: "endpoint", Value: name, Reason: "must be jsdelivr or cloudflare", Err: err}
	}

	c.update(func(s *settings) { s.preferred = e })
	c.logger.Debug().Str("endpoint", string(e)).Msg("Preferred endpoint changed")
	return nil
}

// PreferredEndpoint returns the mirror tried first.
func (c *Client) PreferredEndpoint() endpoint.Endpoint {
	return c.state.Load().preferred
}

// SetHTTPClient sets a custom HTTP client. A nil client restores the default.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc == nil {
		hc = c.defaultHTTP
	}
	c.update(func(s *settings) { s.httpClient = hc })
}

// ClearHTTPClient restores the default HTTP client built by New.
func (c *Client) ClearHTTPClient() {
	c.SetHTTPClient(nil)
}

// InitCache replaces the cache backend. A nil store selects the default file
// store; a ttl <= 0 selects cache.DefaultTTL.
func (c *Client) InitCache(store cache.Store, ttl time.Duration) error {
	if store == nil {
		fileStore, err := cache.DefaultFileStore()
		if err != nil {
			return fmt.Errorf("create default cache: %w", err)
		}
		store = fileStore
	}

	adapter := cache.NewAdapter(store, ttl)
	c.update(func(s *settings) { s.cache = adapter })
	c.logger.Debug().
		Str("store", store.Name()).
		Dur("ttl", adapter.TTL()).
		Msg("Cache initialized")
	return nil
}

// ClearCache removes every cached entry.
func (c *Client) ClearCache(ctx context.Context) error {
	if err := c.state.Load().cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	c.logger.Info().Msg("Cache cleared")
	return nil
}

// Cache returns the current cache adapter.
func (c *Client) Cache() *cache.Adapter {
	return c.state.Load().cache
}

// Fetch resolves a query to a decoded document with cache-first semantics
// and a single fallback to the other mirror.
//
// Invalid queries fail with a *ValidationError before any cache or network
// activity. Upstream failures are never returned as such: when both mirrors
// fail the result is ErrNoData. When ctx is done first, the returned error
// wraps ctx.Err().
//
// A response served by the fallback mirror is cached under the key of the
// originally requested mirror.
func (c *Client) Fetch(ctx context.Context, q Query) (cache.Document, error) {
	q = q.normalized()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	// Snapshot once so a concurrent setter cannot change the mirror or
	// cache halfway through this call.
	s := c.state.Load()

	effective := q.Endpoint
	if effective == "" {
		effective = s.preferred
	}
	key := cache.BuildKey(effective, q.Date, q.Path)

	ctx, span := c.tracer.Start(ctx, "currencyapi.Fetch", trace.WithAttributes(
		attribute.String("fx.endpoint", string(effective)),
		attribute.String("fx.date", q.Date),
		attribute.String("fx.path", q.Path),
	))
	defer span.End()

	doc, err := s.cache.Get(ctx, key)
	if err == nil {
		span.SetAttributes(attribute.Bool("fx.cache_hit", true))
		c.logger.Debug().Str("cache_key", key).Msg("Cache hit")
		return doc, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("cache_key", key).Msg("Cache get error")
	}
	span.SetAttributes(attribute.Bool("fx.cache_hit", false))

	// The shared fetch is detached from any one caller so that a caller
	// going away cannot fail the others waiting on the same key.
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fetchWithFallback(fetchCtx, s, effective, q, key)
	})

	select {
	case <-ctx.Done():
		err := fmt.Errorf("fetch %s: %w", q.Path, ctx.Err())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	case res := <-ch:
		if res.Err != nil {
			span.SetStatus(codes.Error, res.Err.Error())
			return nil, res.Err
		}
		doc = res.Val.(cache.Document)
		if res.Shared {
			doc = doc.Clone()
		}
		return doc, nil
	}
}
