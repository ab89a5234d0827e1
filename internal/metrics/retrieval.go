package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	SubSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memberscout",
			Name:      "subsearches_total",
			Help:      "Total sub-searches by source and outcome",
		},
		[]string{"source", "status"}, // source: lexical|vector, status: ok|error|timeout
	)

	SubSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memberscout",
			Name:      "subsearch_duration_seconds",
			Help:      "Sub-search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"source"},
	)

	RetrievalDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memberscout",
			Name:      "retrieval_degraded_total",
			Help:      "Retrievals that completed with a degraded source",
		},
		[]string{"reason"}, // embedding_unavailable | lexical_failed | vector_failed
	)

	QueryTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memberscout",
			Name:      "query_turns_total",
			Help:      "Completed query turns by extracted intent",
		},
		[]string{"intent"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(SubSearchesTotal)
	prometheus.MustRegister(SubSearchDuration)
	prometheus.MustRegister(RetrievalDegradedTotal)
	prometheus.MustRegister(QueryTurnsTotal)
	retrievalMetricsRegistered = true
}
