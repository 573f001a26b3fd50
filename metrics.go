package webcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts Get calls answered from storage
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webcache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses counts Get calls that went to the network, bypasses included
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webcache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// FetchErrors counts fetches that produced an error response
	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webcache_fetch_errors_total",
			Help: "Total number of failed fetches",
		},
		[]string{"kind"}, // "transport", "status"
	)

	// StoreErrors counts storage failures
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webcache_store_errors_total",
			Help: "Total number of cache storage errors",
		},
		[]string{"operation"}, // "get", "put", "delete", "flush"
	)
)
