package triedb

import "github.com/prometheus/client_golang/prometheus"

// Metrics for monitoring service.
var (
	nodesLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes loaded from the storage",
			Name:      "trie_nodes_loaded_total",
			Namespace: "dotgo",
		},
	)
	nodeCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes taken from the node cache",
			Name:      "trie_node_cache_hits_total",
			Namespace: "dotgo",
		},
	)
	nodesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes written on commits",
			Name:      "trie_nodes_written_total",
			Namespace: "dotgo",
		},
	)
	valuesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of hashed values written on commits",
			Name:      "trie_values_written_total",
			Namespace: "dotgo",
		},
	)
	commits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of committed persistent batches",
			Name:      "trie_commits_total",
			Namespace: "dotgo",
		},
	)
)

func init() {
	prometheus.MustRegister(
		nodesLoaded,
		nodeCacheHits,
		nodesWritten,
		valuesWritten,
		commits,
	)
}

func updateCommitMetrics(nodes, values int) {
	commits.Inc()
	nodesWritten.Add(float64(nodes))
	valuesWritten.Add(float64(values))
}
