package statestore

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	//nodeCacheHits prometheus metric.
	nodeCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes found in cache",
			Name:      "node_cache_hits",
			Namespace: "statetrie",
		},
	)
	//nodeCacheMisses prometheus metric.
	nodeCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes missing in cache",
			Name:      "node_cache_misses",
			Namespace: "statetrie",
		},
	)
	//nodesWritten prometheus metric.
	nodesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes written",
			Name:      "nodes_written",
			Namespace: "statetrie",
		},
	)
	//valuesWritten prometheus metric.
	valuesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of values written",
			Name:      "values_written",
			Namespace: "statetrie",
		},
	)
	//digestMismatches prometheus metric.
	digestMismatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of detected node or value digest mismatches",
			Name:      "digest_mismatches",
			Namespace: "statetrie",
		},
	)
)

func init() {
	prometheus.MustRegister(
		nodeCacheHits,
		nodeCacheMisses,
		nodesWritten,
		valuesWritten,
		digestMismatches,
	)
}
