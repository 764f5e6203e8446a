package client

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Sternrassler/currency-api-client/pkg/cache"
)

// RateTable holds rates keyed by base currency, then target currency.
// Rates are returned verbatim from upstream.
//
// Date is best-effort: it is empty when upstream omits it or sends a
// non-string value.
type RateTable struct {
	Date  string                        `json:"date"`
	Rates map[string]map[string]float64 `json:"rates"`
}

// Rate returns the rate from base to target. Codes are case-insensitive.
func (t *RateTable) Rate(base, target string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	targets, ok := t.Rates[strings.ToLower(base)]
	if !ok {
		return 0, false
	}
	rate, ok := targets[strings.ToLower(target)]
	return rate, ok
}

// newRateTable converts a rate document. Fields that are not a
// target-to-rate object are ignored. Date is left empty when the document's
// date is missing or not a string.
func newRateTable(doc cache.Document) *RateTable {
	table := &RateTable{Rates: make(map[string]map[string]float64)}
	for field, raw := range doc {
		if field == "date" {
			var date string
			if err := json.Unmarshal(raw, &date); err == nil {
				table.Date = date
			}
			continue
		}
		var rates map[string]float64
		if err := json.Unmarshal(raw, &rates); err != nil || rates == nil {
			continue
		}
		table.Rates[field] = rates
	}
	return table
}

// Currencies lists every currency code the API knows, mapped to its name.
// Entries whose name is not a JSON string are left out; use Fetch with the
// /currencies path for the raw document.
func (c *Client) Currencies(ctx context.Context, opts ...Option) (map[string]string, error) {
	doc, err := c.Fetch(ctx, buildQuery(currenciesPath, DateLatest, opts))
	if err != nil {
		return nil, err
	}

	currencies := make(map[string]string, len(doc))
	for code, raw := range doc {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			continue
		}
		currencies[code] = name
	}
	return currencies, nil
}

// LatestRates returns the latest rates for baseCurrency.
func (c *Client) LatestRates(ctx context.Context, baseCurrency string, opts ...Option) (*RateTable, error) {
	base, err := normalizeCurrency("base currency", baseCurrency)
	if err != nil {
		return nil, err
	}
	return c.rates(ctx, DateLatest, base, opts)
}

// HistoricalRates returns the rates for baseCurrency published on date
// (YYYY-MM-DD). A malformed date fails before any network call.
func (c *Client) HistoricalRates(ctx context.Context, date, baseCurrency string, opts ...Option) (*RateTable, error) {
	if err := validateHistoricalDate(date); err != nil {
		return nil, err
	}
	base, err := normalizeCurrency("base currency", baseCurrency)
	if err != nil {
		return nil, err
	}
	return c.rates(ctx, date, base, opts)
}

// LatestRate returns the latest rate between two currencies.
// ErrNoData is returned when either currency is missing from the table.
func (c *Client) LatestRate(ctx context.Context, fromCurrency, toCurrency string, opts ...Option) (float64, error) {
	return c.rate(ctx, DateLatest, fromCurrency, toCurrency, opts)
}

// HistoricalRate returns the rate between two currencies on date (YYYY-MM-DD).
func (c *Client) HistoricalRate(ctx context.Context, date, fromCurrency, toCurrency string, opts ...Option) (float64, error) {
	if err := validateHistoricalDate(date); err != nil {
		return 0, err
	}
	return c.rate(ctx, date, fromCurrency, toCurrency, opts)
}

func (c *Client) rates(ctx context.Context, date, base string, opts []Option) (*RateTable, error) {
	doc, err := c.Fetch(ctx, buildQuery(currencyPath(base), date, opts))
	if err != nil {
		return nil, err
	}
	return newRateTable(doc), nil
}

func (c *Client) rate(ctx context.Context, date, fromCurrency, toCurrency string, opts []Option) (float64, error) {
	from, err := normalizeCurrency("from currency", fromCurrency)
	if err != nil {
		return 0, err
	}
	to, err := normalizeCurrency("to currency", toCurrency)
	if err != nil {
		return 0, err
	}

	table, err := c.rates(ctx, date, from, opts)
	if err != nil {
		return 0, err
	}

	rate, ok := table.Rate(from, to)
	if !ok {
		return 0, ErrNoData
	}
	return rate, nil
}

// validateHistoricalDate only accepts a calendar date; "latest" belongs to
// the Latest* methods.
func validateHistoricalDate(date string) error {
	if !datePattern.MatchString(date) {
		return &ValidationError{Field: "date", Value: date, Reason: "use YYYY-MM-DD"}
	}
	return nil
}
