package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/currency-api-client/pkg/client"
	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
	"github.com/Sternrassler/currency-api-client/pkg/logging"
	"github.com/Sternrassler/currency-api-client/pkg/metrics"
	"github.com/Sternrassler/currency-api-client/pkg/series"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// readinessFunc reports whether a backing service is reachable.
type readinessFunc func(ctx context.Context) error

type handler struct {
	fx      *client.Client
	fetcher *series.Fetcher
	ready   readinessFunc
	timeout time.Duration
	logger  zerolog.Logger
}

// pairResponse is the body of a single-rate lookup.
type pairResponse struct {
	Date   string  `json:"date"`
	Base   string  `json:"base"`
	Target string  `json:"target"`
	Rate   float64 `json:"rate"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newRouter(fx *client.Client, ready readinessFunc, timeout time.Duration) http.Handler {
	h := &handler{
		fx:      fx,
		fetcher: series.NewFetcher(fx, series.DefaultConfig()),
		ready:   ready,
		timeout: timeout,
		logger:  logging.NewLogger("proxy"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", healthHandler)
	r.Get("/ready", h.readyHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/currencies", h.currencies)
		r.Get("/rates/{base}", h.rates)
		r.Get("/rates/{base}/{target}", h.rate)
		r.Get("/series/{base}/{target}", h.rateSeries)
		r.Delete("/cache", h.clearCache)
	})
	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *handler) readyHandler(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "Cache unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *handler) currencies(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.options(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	currencies, err := h.fx.Currencies(ctx, opts...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, currencies)
}

func (h *handler) rates(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.options(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	base := chi.URLParam(r, "base")
	var (
		table *client.RateTable
		err   error
	)
	if date := r.URL.Query().Get("date"); date == "" || date == client.DateLatest {
		table, err = h.fx.LatestRates(ctx, base, opts...)
	} else {
		table, err = h.fx.HistoricalRates(ctx, date, base, opts...)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func (h *handler) rate(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.options(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	base, target := chi.URLParam(r, "base"), chi.URLParam(r, "target")
	date := r.URL.Query().Get("date")

	var (
		rate float64
		err  error
	)
	if date == "" || date == client.DateLatest {
		date = client.DateLatest
		rate, err = h.fx.LatestRate(ctx, base, target, opts...)
	} else {
		rate, err = h.fx.HistoricalRate(ctx, date, base, target, opts...)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pairResponse{Date: date, Base: base, Target: target, Rate: rate})
}

// rateSeries answers /v1/series/{base}/{target}?from=YYYY-MM-DD&to=YYYY-MM-DD.
// The request timeout covers the whole range.
func (h *handler) rateSeries(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.options(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	query := r.URL.Query()
	s, err := h.fetcher.Fetch(ctx, query.Get("from"), query.Get("to"),
		chi.URLParam(r, "base"), chi.URLParam(r, "target"), opts...)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handler) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.fx.ClearCache(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to clear cache")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to clear cache"})
		return
	}
	h.logger.Info().Msg("Cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

// options parses the endpoint override from ?endpoint=.
func (h *handler) options(w http.ResponseWriter, r *http.Request) ([]client.Option, bool) {
	name := r.URL.Query().Get("endpoint")
	if name == "" {
		return nil, true
	}
	e, err := endpoint.Parse(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return nil, false
	}
	return []client.Option{client.WithEndpoint(e)}, true
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case client.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.Is(err, client.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	h.logger.Debug().
		Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Lookup failed")
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
