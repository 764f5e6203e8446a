package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/currency-api-client/pkg/cache"
	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxBodyBytes bounds how much of an upstream body is read.
const maxBodyBytes = 10 << 20

// Prometheus metrics for fallback handling.
var (
	fxFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fx_fallbacks_total",
		Help: "Total number of fallbacks from one mirror to the other",
	}, []string{"from", "to"})

	fxNoDataTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fx_no_data_total",
		Help: "Total number of lookups where both mirrors failed",
	})
)

// fetchWithFallback tries the effective mirror, then the other one exactly
// once. Successful documents are cached under key, which is always derived
// from the effective mirror. A done ctx is reported as such, not as ErrNoData.
func (c *Client) fetchWithFallback(ctx context.Context, s *settings, effective endpoint.Endpoint, q Query, key string) (cache.Document, error) {
	doc, err := c.attempt(ctx, s.httpClient, effective, q)
	if err == nil {
		c.storeDocument(ctx, s.cache, key, doc)
		return doc, nil
	}

	fallback := endpoint.Fallback(effective)
	fxFallbacksTotal.WithLabelValues(string(effective), string(fallback)).Inc()
	c.logger.Warn().
		Err(err).
		Str("endpoint", string(effective)).
		Str("fallback", string(fallback)).
		Str("path", q.Path).
		Str("date", q.Date).
		Msg("Primary endpoint failed, trying fallback")

	doc, err = c.attempt(ctx, s.httpClient, fallback, q)
	if err == nil {
		c.storeDocument(ctx, s.cache, key, doc)
		return doc, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", q.Path, ctxErr)
	}

	fxNoDataTotal.Inc()
	c.logger.Error().
		Err(err).
		Str("path", q.Path).
		Str("date", q.Date).
		Msg("Both endpoints failed")

	return nil, ErrNoData
}

// storeDocument writes doc to the cache; failures are logged, not returned.
func (c *Client) storeDocument(ctx context.Context, adapter *cache.Adapter, key string, doc cache.Document) {
	if err := adapter.Set(ctx, key, doc); err != nil {
		c.logger.Warn().Err(err).Str("cache_key", key).Msg("Failed to cache response")
		return
	}
	c.logger.Debug().
		Str("cache_key", key).
		Dur("ttl", adapter.TTL()).
		Msg("Cached response")
}

// attempt performs one GET against one mirror. Any transport error, a status
// other than 200, or a body that is not a JSON object is a failure.
func (c *Client) attempt(ctx context.Context, hc *http.Client, e endpoint.Endpoint, q Query) (cache.Document, error) {
	baseURL, err := c.resolver.Resolve(e, q.Date)
	if err != nil {
		return nil, &UpstreamError{Endpoint: e, ErrorClass: ErrorClassUnexpected, Err: err}
	}
	url := baseURL + q.Path + ".json"

	ctx, span := c.tracer.Start(ctx, "currencyapi.attempt", trace.WithAttributes(
		attribute.String("fx.endpoint", string(e)),
		attribute.String("http.url", url),
	))
	defer span.End()

	doc, err := c.get(ctx, hc, e, url)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, hc *http.Client, e endpoint.Endpoint, url string) (cache.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UpstreamError{Endpoint: e, URL: url, ErrorClass: ErrorClassUnexpected, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", string(e)).
		Str("url", url).
		Msg("Executing upstream request")

	startTime := time.Now()
	defer func() {
		fxRequestDuration.WithLabelValues(string(e)).Observe(time.Since(startTime).Seconds())
	}()

	resp, err := hc.Do(req)
	if err != nil {
		fxErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		fxRequestsTotal.WithLabelValues(string(e), "network_error").Inc()
		return nil, &UpstreamError{Endpoint: e, URL: url, ErrorClass: ErrorClassNetwork, Err: err}
	}
	defer resp.Body.Close()

	fxRequestsTotal.WithLabelValues(string(e), strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		class := classifyStatus(resp.StatusCode)
		fxErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Debug().
			Str("endpoint", string(e)).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Upstream request error")
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{Endpoint: e, URL: url, StatusCode: resp.StatusCode, ErrorClass: class}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		fxErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &UpstreamError{Endpoint: e, URL: url, StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Err: fmt.Errorf("read response body: %w", err)}
	}

	doc, err := cache.DecodeDocument(body)
	if err != nil {
		fxErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &UpstreamError{Endpoint: e, URL: url, StatusCode: resp.StatusCode, ErrorClass: ErrorClassDecode, Err: err}
	}

	return doc, nil
}

// classifyStatus categorizes a non-200 status for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}
