package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long an entry lives when the caller does not override it.
const DefaultTTL = 24 * time.Hour

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is the key-value capability the adapter is built on.
// Implementations must return ErrCacheMiss for absent or expired keys.
// A ttl <= 0 passed to Set means the entry does not expire.
type Store interface {
	// Name identifies the backend in metrics and logs.
	Name() string
	Get(ctx context.Context, key string) (Document, error)
	Set(ctx context.Context, key string, value Document, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Adapter wraps a Store with a default TTL and metrics.
type Adapter struct {
	store Store
	ttl   time.Duration
}

// NewAdapter creates an adapter over store. A ttl <= 0 selects DefaultTTL.
func NewAdapter(store Store, ttl time.Duration) *Adapter {
	if store == nil {
		panic("cache store cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Adapter{store: store, ttl: ttl}
}

// Store returns the underlying store.
func (a *Adapter) Store() Store {
	return a.store
}

// TTL returns the adapter's default TTL.
func (a *Adapter) TTL() time.Duration {
	return a.ttl
}

// Get retrieves a document by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (a *Adapter) Get(ctx context.Context, key string) (Document, error) {
	name := a.store.Name()

	doc, err := a.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			CacheMisses.WithLabelValues(name).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(name, "get").Inc()
		return nil, err
	}

	CacheHits.WithLabelValues(name).Inc()
	return doc, nil
}

// Set stores a document under key using the adapter's default TTL.
func (a *Adapter) Set(ctx context.Context, key string, value Document) error {
	return a.SetWithTTL(ctx, key, value, a.ttl)
}

// SetWithTTL stores a document under key. A ttl <= 0 selects the default TTL.
func (a *Adapter) SetWithTTL(ctx context.Context, key string, value Document, ttl time.Duration) error {
	if value == nil {
		return errors.New("cache value cannot be nil")
	}
	if ttl <= 0 {
		ttl = a.ttl
	}

	name := a.store.Name()
	if err := a.store.Set(ctx, key, value, ttl); err != nil {
		CacheErrors.WithLabelValues(name, "set").Inc()
		return err
	}
	CacheWrites.WithLabelValues(name).Inc()
	return nil
}

// Delete removes a single entry.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		CacheErrors.WithLabelValues(a.store.Name(), "delete").Inc()
		return err
	}
	return nil
}

// Clear removes every entry owned by the store.
func (a *Adapter) Clear(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		CacheErrors.WithLabelValues(a.store.Name(), "clear").Inc()
		return err
	}
	return nil
}
