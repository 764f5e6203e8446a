package cache

import (
	"strings"

	"github.com/Sternrassler/currency-api-client/pkg/endpoint"
)

// KeyPrefix is the leading segment of every exchange-rate cache key.
const KeyPrefix = "fx"

// pathEscaper makes a resource path safe to embed in a ":"-separated key.
// "%" is escaped first so escaped sequences cannot be forged by the input,
// and "." is escaped so it stays distinguishable from a translated "/".
var pathEscaper = strings.NewReplacer(
	"%", "%25",
	":", "%3A",
	".", "%2E",
	"/", ".",
)

// BuildKey generates a deterministic cache key for an exchange-rate lookup.
// Format: fx:endpoint:date:path
//
// Example:
//
//	fx:jsdelivr:2024-03-06:currencies.eur
//
// Distinct (endpoint, date, path) triples never share a key: the endpoint
// and date tokens cannot contain ":" once validated, and the path is escaped
// so that no two paths map to the same segment.
func BuildKey(e endpoint.Endpoint, date, path string) string {
	parts := []string{
		KeyPrefix,
		pathEscaper.Replace(string(e)),
		pathEscaper.Replace(date),
		pathEscaper.Replace(strings.TrimPrefix(path, "/")),
	}
	return strings.Join(parts, ":")
}
