// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors research-feed updates
// while scoring, reranking and fetching. The CLI is short-lived, so the
// collectors are exported as a node_exporter textfile snapshot instead of
// being served over HTTP.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PapersScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_feed_papers_scored_total",
			Help: "Total number of papers scored by the taxonomy pass",
		},
	)

	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "research_feed_score_duration_seconds",
			Help:    "Duration of a full taxonomy scoring pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RerankBatches counts batches by result: "success" or "failure".
	RerankBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_feed_rerank_batches_total",
			Help: "Total number of AI rerank batches by result",
		},
		[]string{"result"},
	)

	// RerankOutcomes counts rerank passes by terminal outcome.
	RerankOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_feed_rerank_outcomes_total",
			Help: "Total number of AI rerank passes by outcome",
		},
		[]string{"outcome"},
	)

	// LLMRequests counts LLM API calls by provider and status class.
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_feed_llm_requests_total",
			Help: "Total number of LLM API requests by provider and status",
		},
		[]string{"provider", "status"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "research_feed_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	FetchPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_feed_fetch_pages_total",
			Help: "Total number of metadata source pages fetched by result",
		},
		[]string{"source", "result"},
	)
)

// WriteTextfile writes a snapshot of every registered collector to path in
// the Prometheus text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
