package client

import (
	"regexp"
	"strings"

	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
)

// DateLatest selects the most recent published dataset.
const DateLatest = "latest"

// Resource paths served by both mirrors.
const (
	currenciesPath = "/currencies"
)

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	currencyPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// Query is a logical request for one upstream resource.
type Query struct {
	// Path is the resource path without the ".json" suffix, e.g. "/currencies/eur".
	Path string

	// Date is DateLatest or a YYYY-MM-DD date. Empty means DateLatest.
	Date string

	// Endpoint overrides the client's preferred mirror when set.
	Endpoint endpoint.Endpoint
}

// Option adjusts a Query built by the rate lookup methods.
type Option func(*Query)

// WithEndpoint makes a single call prefer e over the client's preferred mirror.
func WithEndpoint(e endpoint.Endpoint) Option {
	return func(q *Query) {
		q.Endpoint = e
	}
}

func (q Query) normalized() Query {
	if q.Date == "" {
		q.Date = DateLatest
	}
	return q
}

// Validate checks the query without touching cache or network.
func (q Query) Validate() error {
	q = q.normalized()
	if q.Path == "" || !strings.HasPrefix(q.Path, "/") || strings.Contains(q.Path, "..") {
		return &ValidationError{Field: "path", Value: q.Path, Reason: "must be an absolute resource path"}
	}
	if err := ValidateDate(q.Date); err != nil {
		return err
	}
	if q.Endpoint != "" && !q.Endpoint.Valid() {
		return &ValidationError{
			Field:  "endpoint",
			Value:  string(q.Endpoint),
			Reason: "must be jsdelivr or cloudflare",
			Err:    endpoint.ErrUnknownEndpoint,
		}
	}
	return nil
}

// ValidateDate accepts DateLatest or a YYYY-MM-DD date.
func ValidateDate(date string) error {
	if date == DateLatest || datePattern.MatchString(date) {
		return nil
	}
	return &ValidationError{Field: "date", Value: date, Reason: "use YYYY-MM-DD"}
}

// normalizeCurrency lower-cases a currency code; upstream keys are lower case.
func normalizeCurrency(field, code string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if !currencyPattern.MatchString(normalized) {
		return "", &ValidationError{Field: field, Value: code, Reason: "must be a currency code"}
	}
	return normalized, nil
}

func currencyPath(code string) string {
	return currenciesPath + "/" + code
}

func buildQuery(path, date string, opts []Option) Query {
	q := Query{Path: path, Date: date}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}
