package cache

import (
	"encoding/json"
	"time"
)

// Document is a decoded upstream JSON object, keyed by its top-level fields
// (for rate resources: "date" plus one field per base currency).
type Document map[string]json.RawMessage

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// storedEntry is the on-disk and in-memory representation of a cached document.
type storedEntry struct {
	// Key is the cache key the entry was written under
	Key string `json:"key"`

	// Value is the cached document
	Value Document `json:"value"`

	// ExpiresAt is when the entry becomes stale; zero means never
	ExpiresAt time.Time `json:"expires_at"`

	// CachedAt is when the entry was written
	CachedAt time.Time `json:"cached_at"`
}

func newStoredEntry(key string, value Document, ttl time.Duration) storedEntry {
	now := time.Now()
	entry := storedEntry{
		Key:      key,
		Value:    value.Clone(),
		CachedAt: now,
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	return entry
}

// IsExpired returns true if the entry has an expiry and it has passed.
func (e *storedEntry) IsExpired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}
