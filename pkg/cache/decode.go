package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when an upstream body is valid JSON but not an object.
var ErrNotObject = errors.New("response body is not a JSON object")

// DecodeDocument decodes an upstream response body into a Document.
// Only a JSON object is accepted; scalars, arrays, null and malformed input
// are errors, so a Document is either fully decoded or not produced at all.
func DecodeDocument(body []byte) (Document, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	if doc == nil {
		return nil, ErrNotObject
	}
	return doc, nil
}
