package client

import (
	"errors"
	"fmt"

	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
)

// Common errors returned by the client.
var (
	// ErrNoData is returned when no rate data is available. It covers both
	// "the requested currency or pair does not exist" and "both mirrors
	// failed"; callers cannot tell the two apart.
	ErrNoData = errors.New("no exchange rate data available")

	// ErrInvalidInput is matched by every ValidationError.
	ErrInvalidInput = errors.New("invalid input")
)

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses (e.g. unknown currency or date).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 200 response whose body is not a JSON object.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassUnexpected represents any other non-200 status.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// ValidationError reports caller input that was rejected before any cache
// or network activity.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamError describes a single failed attempt against one mirror.
// It is logged and counted but never returned to callers.
type UpstreamError struct {
	Endpoint   endpoint.Endpoint
	URL        string
	StatusCode int
	ErrorClass ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s error (status %d): %s: %v",
			e.Endpoint, e.ErrorClass, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s error (status %d): %s",
		e.Endpoint, e.ErrorClass, e.StatusCode, e.URL)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is caller input error.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
