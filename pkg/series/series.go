// Package series fetches a historical rate for every day in a date range
// using a bounded pool of concurrent lookups.
package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/currency-api-client/pkg/client"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

// MaxDays bounds a single series request.
const MaxDays = 366

// Config holds series fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel lookups
	MaxConcurrency int
	// Timeout per date lookup
	Timeout time.Duration
}

// DefaultConfig returns a configuration that stays polite to the CDN.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 8,
		Timeout:        15 * time.Second,
	}
}

// RateSource is the single-date lookup a Fetcher fans out over.
// *client.Client implements it.
type RateSource interface {
	HistoricalRate(ctx context.Context, date, fromCurrency, toCurrency string, opts ...client.Option) (float64, error)
}

// Point is the rate on one date.
type Point struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// Series is an ordered set of points. Missing lists dates for which neither
// mirror had data.
type Series struct {
	Base    string   `json:"base"`
	Target  string   `json:"target"`
	Points  []Point  `json:"points"`
	Missing []string `json:"missing,omitempty"`
}

// Fetcher runs date lookups in parallel.
type Fetcher struct {
	source RateSource
	config Config
}

// NewFetcher creates a new series fetcher.
func NewFetcher(source RateSource, config Config) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 8
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	return &Fetcher{source: source, config: config}
}

// Dates returns every date from start to end inclusive.
func Dates(start, end string) ([]string, error) {
	from, err := parseDate("from", start)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, &client.ValidationError{Field: "to", Value: end, Reason: "must not be before " + start}
	}

	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxDays {
		return nil, &client.ValidationError{Field: "to", Value: end, Reason: fmt.Sprintf("range exceeds %d days", MaxDays)}
	}

	dates := make([]string, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates, nil
}

func parseDate(field, value string) (time.Time, error) {
	if err := client.ValidateDate(value); err != nil || value == client.DateLatest {
		return time.Time{}, &client.ValidationError{Field: field, Value: value, Reason: "expected YYYY-MM-DD"}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &client.ValidationError{Field: field, Value: value, Reason: "not a calendar date", Err: err}
	}
	return t, nil
}

// Fetch looks up base/target for every date in [start, end]. Dates without
// data are reported in Missing; any other failure aborts the whole series.
func (f *Fetcher) Fetch(ctx context.Context, start, end, base, target string, opts ...client.Option) (*Series, error) {
	dates, err := Dates(start, end)
	if err != nil {
		return nil, err
	}

	begin := time.Now()
	log.Debug().
		Str("base", base).
		Str("target", target).
		Int("dates", len(dates)).
		Msg("Starting series fetch")

	type result struct {
		rate float64
		ok   bool
	}
	results := make([]result, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.MaxConcurrency)
	for i, date := range dates {
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gctx, f.config.Timeout)
			defer cancel()

			rate, err := f.source.HistoricalRate(lookupCtx, date, base, target, opts...)
			switch {
			case err == nil:
				results[i] = result{rate: rate, ok: true}
				return nil
			case errors.Is(err, client.ErrNoData):
				return nil
			default:
				return fmt.Errorf("%s: %w", date, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Series{Base: base, Target: target, Points: make([]Point, 0, len(dates))}
	for i, date := range dates {
		if !results[i].ok {
			s.Missing = append(s.Missing, date)
			continue
		}
		s.Points = append(s.Points, Point{Date: date, Rate: results[i].rate})
	}

	log.Debug().
		Int("points", len(s.Points)).
		Int("missing", len(s.Missing)).
		Dur("duration", time.Since(begin)).
		Msg("Series fetch complete")
	return s, nil
}
