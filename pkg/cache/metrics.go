package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by store (file, redis, memory)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fx_cache_hits_total",
			Help: "Total number of exchange-rate cache hits",
		},
		[]string{"store"},
	)

	// CacheMisses tracks cache misses by store
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fx_cache_misses_total",
			Help: "Total number of exchange-rate cache misses",
		},
		[]string{"store"},
	)

	// CacheWrites tracks successful writes by store
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fx_cache_writes_total",
			Help: "Total number of exchange-rate cache writes",
		},
		[]string{"store"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fx_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"store", "operation"}, // "get", "set", "delete", "clear"
	)
)
