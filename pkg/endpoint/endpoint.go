// Package endpoint knows the two CDN mirrors that serve the currency API
// and how to build their base URLs for a given date token.
package endpoint

import (
	"errors"
	"fmt"
	"strings"
)

// APIVersion is the path segment both mirrors serve the dataset under.
const APIVersion = "v1"

// Endpoint identifies one of the two upstream mirrors.
type Endpoint string

const (
	// JSDelivr is the jsDelivr npm CDN mirror (default preference).
	JSDelivr Endpoint = "jsdelivr"

	// Cloudflare is the Cloudflare Pages mirror.
	Cloudflare Endpoint = "cloudflare"
)

// ErrUnknownEndpoint is returned for any name outside the two known mirrors.
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// DefaultTemplates maps each mirror to its base URL template. The single %s
// verb receives the date token ("latest" or YYYY-MM-DD).
var DefaultTemplates = map[Endpoint]string{
	JSDelivr:   "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@%s/" + APIVersion,
	Cloudflare: "https://%s.currency-api.pages.dev/" + APIVersion,
}

// All returns both mirrors in default preference order.
func All() []Endpoint {
	return []Endpoint{JSDelivr, Cloudflare}
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	return string(e)
}

// Valid reports whether e is one of the two known mirrors.
func (e Endpoint) Valid() bool {
	return e == JSDelivr || e == Cloudflare
}

// Parse converts a user-supplied name into an Endpoint.
// Matching is case-insensitive and ignores surrounding whitespace.
func Parse(name string) (Endpoint, error) {
	e := Endpoint(strings.ToLower(strings.TrimSpace(name)))
	if !e.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}
	return e, nil
}

// Fallback returns the other mirror. Anything that is not Cloudflare falls
// back to Cloudflare, so the function has no error case.
func Fallback(e Endpoint) Endpoint {
	if e == Cloudflare {
		return JSDelivr
	}
	return Cloudflare
}

// Resolver turns an endpoint and date token into a base URL.
type Resolver struct {
	templates map[Endpoint]string
}

// NewResolver creates a Resolver from a template set. Both mirrors must be
// present; templates are copied so later changes to the map have no effect.
func NewResolver(templates map[Endpoint]string) (*Resolver, error) {
	copied := make(map[Endpoint]string, len(templates))
	for _, e := range All() {
		tmpl, ok := templates[e]
		if !ok || tmpl == "" {
			return nil, fmt.Errorf("missing template for endpoint %q", e)
		}
		if strings.Count(tmpl, "%s") != 1 {
			return nil, fmt.Errorf("template for endpoint %q must contain exactly one %%s", e)
		}
		copied[e] = tmpl
	}
	return &Resolver{templates: copied}, nil
}

// DefaultResolver returns a Resolver for the public mirrors.
func DefaultResolver() *Resolver {
	r, err := NewResolver(DefaultTemplates)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve substitutes the date token into the endpoint's template.
func (r *Resolver) Resolve(e Endpoint, date string) (string, error) {
	tmpl, ok := r.templates[e]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, e)
	}
	return fmt.Sprintf(tmpl, date), nil
}

// Resolve is a shorthand for DefaultResolver().Resolve.
func Resolve(e Endpoint, date string) (string, error) {
	return defaultResolver.Resolve(e, date)
}

var defaultResolver = DefaultResolver()
