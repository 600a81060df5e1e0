// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rerank refines a taxonomy-scored paper list with ratings from a
// language model. The highest-scoring papers are sent to the model in fixed
// size batches, its relevance and discovery ratings are blended into the
// taxonomy score according to the researcher's exploration level, and the
// list is re-sorted.
//
// Reranking never fails its caller. Every failure degrades to keeping the
// taxonomy score and is reported in RerankResult.Error.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/research-feed/internal/llm"
	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/metrics"
	"github.com/pdiddy/research-feed/pkg/types"
)

// Completer is the model call the reranker depends on. llm.Breaker,
// llm.AnthropicClient and llm.OpenAIClient satisfy it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// errNoScores marks a reply that parsed to zero usable entries.
var errNoScores = errors.New("no usable scores in model reply")

// DefaultConfig returns the reranker defaults: top 40 papers, batches of 8,
// one batch in flight, 30s per call.
func DefaultConfig() types.RerankConfig {
	return types.RerankConfig{
		TopN:             40,
		BatchSize:        8,
		Timeout:          30 * time.Second,
		Concurrency:      1,
		AbstractChars:    400,
		TaxonomyBase:     0.55,
		ExplorationShift: ptr(0.2),
		DiscoveryShare:   ptr(0.4),
	}
}

// Reranker blends model ratings into taxonomy scores.
type Reranker struct {
	client  Completer
	cfg     types.RerankConfig
	limiter *rate.Limiter
	blender blender
}

// New returns a Reranker calling client. Zero fields of cfg take their
// DefaultConfig values, except the nillable blend shares, where only nil does.
func New(client Completer, cfg types.RerankConfig) *Reranker {
	cfg = withDefaults(cfg)
	r := &Reranker{client: client, cfg: cfg, blender: newBlender(cfg)}
	if cfg.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return r
}

func withDefaults(cfg types.RerankConfig) types.RerankConfig {
	def := DefaultConfig()
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.AbstractChars <= 0 {
		cfg.AbstractChars = def.AbstractChars
	}
	if cfg.TaxonomyBase <= 0 {
		cfg.TaxonomyBase = def.TaxonomyBase
	}
	if cfg.ExplorationShift == nil || *cfg.ExplorationShift < 0 {
		cfg.ExplorationShift = def.ExplorationShift
	}
	if cfg.DiscoveryShare == nil || *cfg.DiscoveryShare < 0 {
		cfg.DiscoveryShare = def.DiscoveryShare
	}
	return cfg
}

func ptr(v float64) *float64 { return &v }

// Options selects the model for the package-level Rerank.
type Options struct {
	APIKey   string
	Model    string
	Provider types.AIProvider
	BaseURL  string

	// Config overrides the reranker defaults. Zero fields keep them.
	Config types.RerankConfig
}

// Rerank builds a client from opts and reranks papers with it. A client that
// cannot be built is reported in the result like any other failure.
func Rerank(ctx context.Context, papers []types.ScoredPaper, profile types.UserProfile, opts Options) types.RerankResult {
	client, err := llm.New(types.AIConfig{
		Provider: opts.Provider,
		Model:    opts.Model,
		APIKey:   opts.APIKey,
		BaseURL:  opts.BaseURL,
	})
	if err != nil {
		return unchanged(papers, err.Error())
	}
	return New(client, opts.Config).Rerank(ctx, papers, profile)
}

type batchResult struct {
	ran    bool
	scores []aiScore
	err    error
}

// Rerank scores the top papers with the model and returns the blended,
// re-sorted list. The input slice is not modified.
func (r *Reranker) Rerank(ctx context.Context, papers []types.ScoredPaper, profile types.UserProfile) (res types.RerankResult) {
	defer func() {
		if p := recover(); p != nil {
			res = unchanged(papers, fmt.Sprintf("AI reranking failed: %v", p))
			metrics.RerankOutcomes.WithLabelValues(string(res.Outcome)).Inc()
		}
	}()

	if len(papers) == 0 {
		return unchanged(papers, "")
	}
	if r == nil || r.client == nil {
		return unchanged(papers, "AI reranking is not configured")
	}

	ranked := clonePapers(papers)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	n := min(r.cfg.TopN, len(ranked))
	eligible, rest := ranked[:n], ranked[n:]
	batches := chunk(eligible, r.cfg.BatchSize)

	log := logging.Component("rerank")
	log.Debug().Int("papers", n).Int("batches", len(batches)).Int("concurrency", r.cfg.Concurrency).Msg("reranking")

	results := r.dispatch(ctx, profile, batches)

	var succeeded, failed, fatalIdx = 0, 0, -1
	var firstErr error
	for i, br := range results {
		if !br.ran {
			continue
		}
		if br.err == nil {
			succeeded++
			metrics.RerankBatches.WithLabelValues("success").Inc()
			continue
		}
		failed++
		metrics.RerankBatches.WithLabelValues("failure").Inc()
		log.Warn().Err(br.err).Int("batch", i).Msg("AI batch failed")
		if firstErr == nil {
			firstErr = br.err
		}
		if fatalIdx < 0 && llm.Fatal(br.err) {
			fatalIdx = i
		}
	}

	switch {
	case fatalIdx >= 0:
		msg := fmt.Sprintf("AI scoring stopped: %v", results[fatalIdx].err)
		if succeeded == 0 {
			res = unchanged(papers, msg)
			res.Outcome = types.OutcomeAborted
		} else {
			res = r.merge(eligible, rest, batches, results, profile)
			res.Outcome = types.OutcomeAborted
			res.Error = msg
		}
	case succeeded == 0 && failed == 0:
		msg := "AI scoring did not run"
		if err := ctx.Err(); err != nil {
			msg = fmt.Sprintf("AI scoring cancelled: %v", err)
		}
		res = unchanged(papers, msg)
	case succeeded == 0:
		res = unchanged(papers, fmt.Sprintf("AI scoring failed for all %d batches: %v", failed, firstErr))
	default:
		res = r.merge(eligible, rest, batches, results, profile)
	}
	res.BatchesSucceeded = succeeded
	res.BatchesFailed = failed

	metrics.RerankOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	log.Info().
		Str("outcome", string(res.Outcome)).
		Int("ai_scored", res.AIPapersScored).
		Int("batches_ok", succeeded).
		Int("batches_failed", failed).
		Msg("rerank finished")
	return res
}

// dispatch runs the batches through a semaphore of size Concurrency. A fatal
// error sets the abort flag and cancels the batches still in flight; batches
// not yet started are skipped.
func (r *Reranker) dispatch(ctx context.Context, profile types.UserProfile, batches [][]types.ScoredPaper) []batchResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]batchResult, len(batches))
	sem := make(chan struct{}, r.cfg.Concurrency)
	var aborted atomic.Bool
	var wg sync.WaitGroup

loop:
	for i, batch := range batches {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		if aborted.Load() || ctx.Err() != nil {
			<-sem
			break loop
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				<-sem
				break loop
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if p := recover(); p != nil {
					results[i] = batchResult{ran: true, err: fmt.Errorf("batch %d panicked: %v", i, p)}
				}
			}()

			scores, err := r.scoreBatch(ctx, profile, batch)
			results[i] = batchResult{ran: true, scores: scores, err: err}
			if err != nil && llm.Fatal(err) {
				aborted.Store(true)
				cancel()
			}
		}()
	}
	wg.Wait()
	return results
}

// scoreBatch sends one batch to the model under the per-call timeout.
func (r *Reranker) scoreBatch(ctx context.Context, profile types.UserProfile, batch []types.ScoredPaper) ([]aiScore, error) {
	prompt, err := renderPrompt(profile, batch, r.cfg.AbstractChars)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	reply, err := r.client.Complete(callCtx, prompt)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("model call timed out after %s: %w", r.cfg.Timeout, err)
		}
		return nil, err
	}
	scores := parseScores(reply, len(batch))
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: reply length %d", errNoScores, len(reply))
	}
	return scores, nil
}

// merge applies the successful batches in batch order, re-sorts the eligible
// papers and appends the rest unchanged.
func (r *Reranker) merge(eligible, rest []types.ScoredPaper, batches [][]types.ScoredPaper,
	results []batchResult, profile types.UserProfile) types.RerankResult {
	e := profile.Exploration()
	scored := 0
	offset := 0
	for i, br := range results {
		if br.err == nil {
			for _, s := range br.scores {
				r.blender.apply(&eligible[offset+s.Index-1], s, e)
				scored++
			}
		}
		offset += len(batches[i])
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].RelevanceScore > eligible[j].RelevanceScore
	})
	out := make([]types.ScoredPaper, 0, len(eligible)+len(rest))
	out = append(out, eligible...)
	out = append(out, rest...)

	return types.RerankResult{
		Papers:         out,
		AIEnhanced:     scored > 0,
		AIPapersScored: scored,
		Outcome:        types.OutcomeBlended,
	}
}

// unchanged returns a copy of papers in their given order.
func unchanged(papers []types.ScoredPaper, msg string) types.RerankResult {
	return types.RerankResult{
		Papers:  clonePapers(papers),
		Outcome: types.OutcomeUnchanged,
		Error:   msg,
	}
}

// chunk splits papers into consecutive batches of at most size. The batches
// share papers' backing array.
func chunk(papers []types.ScoredPaper, size int) [][]types.ScoredPaper {
	var out [][]types.ScoredPaper
	for start := 0; start < len(papers); start += size {
		out = append(out, papers[start:min(start+size, len(papers))])
	}
	return out
}

func clonePapers(papers []types.ScoredPaper) []types.ScoredPaper {
	if papers == nil {
		return []types.ScoredPaper{}
	}
	out := make([]types.ScoredPaper, len(papers))
	copy(out, papers)
	return out
}
