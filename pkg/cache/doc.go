// Package cache provides the exchange-rate cache layer.
//
// The package is split into a small key-value capability (Store) and an
// Adapter that adds a default TTL and Prometheus metrics on top of it:
//
// - Deterministic cache key generation (BuildKey)
// - Default TTL of 24 hours when the caller does not override it
// - Passive expiry: entries are never invalidated except by Clear
// - Interchangeable backends: FileStore, RedisStore, MemoryStore
//
// # Basic Usage
//
//	// Default filesystem store under the system temp dir
//	store, err := cache.DefaultFileStore()
//	if err != nil {
//		return err
//	}
//	adapter := cache.NewAdapter(store, 0) // 0 selects DefaultTTL
//
//	key := cache.BuildKey(endpoint.JSDelivr, "2024-03-06", "/currencies/eur")
//
//	doc, err := adapter.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from upstream, then adapter.Set(ctx, key, doc)
//	}
//
// # Redis Backend
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	adapter := cache.NewAdapter(cache.NewRedisStore(redisClient, ""), time.Hour)
//
// # Metrics
//
// The adapter exports Prometheus metrics:
//
//   - fx_cache_hits_total{store} - Cache hits
//   - fx_cache_misses_total{store} - Cache misses
//   - fx_cache_writes_total{store} - Successful writes
//   - fx_cache_errors_total{store,operation} - Cache operation errors
package cache
