// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for research-feed: the user
// profile, paper records, scored results, reference data entries and the
// per-stage configuration blocks.
package types

// ScoreResult is the output of one taxonomy scoring pass.
type ScoreResult struct {
	// Papers are sorted by RelevanceScore descending; ties keep input order.
	Papers []ScoredPaper `json:"papers" yaml:"papers"`

	// Summary reports the paper count and the number of strong matches.
	Summary string `json:"summary" yaml:"summary"`
}

// RerankOutcome is the terminal state of an AI reranking pass.
type RerankOutcome string

const (
	// OutcomeBlended means at least one batch succeeded and its scores were blended.
	OutcomeBlended RerankOutcome = "blended"

	// OutcomeUnchanged means no batch succeeded; papers are returned as given.
	OutcomeUnchanged RerankOutcome = "unchanged"

	// OutcomeAborted means an authentication, quota, permission or model
	// error stopped dispatch. Batches that finished before the abort are kept.
	OutcomeAborted RerankOutcome = "aborted"
)

// RerankResult is the output of an AI reranking pass. It never carries a
// Go error: failures are reported in Error.
type RerankResult struct {
	Papers []ScoredPaper `json:"papers" yaml:"papers"`

	// AIEnhanced is true when at least one paper received an AI score.
	AIEnhanced bool `json:"ai_enhanced" yaml:"ai_enhanced"`

	// AIPapersScored counts papers whose score was blended.
	AIPapersScored int `json:"ai_papers_scored" yaml:"ai_papers_scored"`

	Outcome RerankOutcome `json:"outcome" yaml:"outcome"`

	BatchesSucceeded int `json:"batches_succeeded" yaml:"batches_succeeded"`
	BatchesFailed    int `json:"batches_failed" yaml:"batches_failed"`

	// Error describes the failure that disabled or limited AI enhancement.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
