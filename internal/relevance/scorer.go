// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance scores papers against a user profile. Each paper gets a
// profile-independent quality baseline from journal tier and citations,
// additions for topic and method matches, and a multiplier for adjacent
// fields. The result is a 1.0 to 10.0 score with a one-line explanation.
//
// Scoring is a pure function of the profile, the papers and the catalog:
// two passes over the same input produce identical output.
package relevance

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/research-feed/internal/catalog"
	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/metrics"
	"github.com/pdiddy/research-feed/internal/textnorm"
	"github.com/pdiddy/research-feed/internal/validation"
	"github.com/pdiddy/research-feed/pkg/types"
)

// Score bounds.
const (
	MinScore = 1.0
	MaxScore = 10.0
)

// DefaultStrongMatch is the score counted as a strong match in the summary.
const DefaultStrongMatch = 7.0

const (
	topicWeight       = 3.0
	methodWeight      = 2.0
	methodMatchShare  = 0.8
	approachShare     = 0.2
	dualSignalMinimum = 0.3
	dualSignalBonus   = 1.15
)

// Explanation fragments.
const (
	explainSeparator  = " · "
	explainGeneralist = "Recent quality research"
	explainDefault    = "Related to your field"
	explainAdjacent   = "Related field"
)

// tierLabels names the journal tiers worth calling out.
var tierLabels = map[int]string{
	types.TierFlagship: "Top journal",
	types.TierTopField: "Top field journal",
}

// Scorer scores paper lists against profiles using one catalog.
// It is safe for concurrent use.
type Scorer struct {
	catalog     *catalog.Catalog
	interests   listScorer
	methods     listScorer
	approach    *approachAligner
	workers     int
	strongMatch float64
}

// NewScorer returns a Scorer reading reference data from cat. A nil cat
// uses the embedded default catalog.
func NewScorer(cat *catalog.Catalog, cfg types.ScoringConfig) *Scorer {
	if cat == nil {
		cat = catalog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	strong := cfg.StrongMatch
	if strong <= 0 {
		strong = DefaultStrongMatch
	}

	s := &Scorer{
		catalog:     cat,
		interests:   interestParams,
		methods:     methodParams,
		approach:    newApproachAligner(cat.ApproachSignals),
		workers:     workers,
		strongMatch: strong,
	}
	s.interests.lookup = cat.Interest
	s.methods.lookup = cat.Method
	return s
}

var (
	defaultScorer     *Scorer
	defaultScorerOnce sync.Once
)

// Score scores papers with the default catalog and settings.
func Score(profile types.UserProfile, papers []types.Paper) (types.ScoreResult, error) {
	defaultScorerOnce.Do(func() {
		defaultScorer = NewScorer(catalog.Default(), types.ScoringConfig{})
	})
	return defaultScorer.Score(profile, papers)
}

// Score validates the input, scores every paper and returns them sorted by
// score descending. Papers with equal scores keep their input order.
// Neither profile nor papers is modified.
func (s *Scorer) Score(profile types.UserProfile, papers []types.Paper) (types.ScoreResult, error) {
	if err := validation.Profile(profile); err != nil {
		return types.ScoreResult{}, err
	}
	if err := validation.Papers(papers); err != nil {
		return types.ScoreResult{}, err
	}

	start := time.Now()
	targets := s.targetConcepts(profile)
	scored := make([]types.ScoredPaper, len(papers))

	workers := min(s.workers, len(papers))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scored[i] = s.scorePaper(profile, papers[i], targets)
			}
		}()
	}
	for i := range papers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})

	elapsed := time.Since(start)
	metrics.PapersScored.Add(float64(len(scored)))
	metrics.ScoreDuration.Observe(elapsed.Seconds())
	log := logging.Component("relevance")
	log.Debug().
		Int("papers", len(scored)).
		Int("workers", workers).
		Int("target_concepts", len(targets)).
		Dur("elapsed", elapsed).
		Msg("scoring pass complete")

	return types.ScoreResult{
		Papers:  scored,
		Summary: s.summary(profile, scored),
	}, nil
}

// targetConcepts collects the classifier tags the profile cares about:
// those of the primary field (skipped for generalists) and of every interest.
func (s *Scorer) targetConcepts(profile types.UserProfile) []string {
	var targets []string
	if !profile.IsGeneralist() && profile.PrimaryField != "" {
		targets = append(targets, s.catalog.ConceptsForField(profile.PrimaryField)...)
	}
	for _, interest := range profile.Interests {
		targets = append(targets, s.catalog.ConceptsForInterest(interest)...)
	}
	return targets
}

// textBlob is the normalized matching text. The title appears twice so
// title matches carry double weight.
func textBlob(p types.Paper) string {
	return textnorm.Normalize(p.Title + " " + p.Title + " " + p.Abstract)
}

func (s *Scorer) scorePaper(profile types.UserProfile, in types.Paper, targets []string) types.ScoredPaper {
	p := in
	p.Authors = slices.Clone(in.Authors)
	p.Concepts = slices.Clone(in.Concepts)
	s.catalog.Enrich(&p)

	text := textBlob(p)
	baseline := Baseline(p.JournalTier, p.CitedByCount)

	conceptScore, topics := MatchConcepts(p.Concepts, targets)
	interestScore, interests := s.interests.score(profile.Interests, text)
	methodScore, methods := s.methods.score(profile.Methods, text)

	topicBonus := max(conceptScore, interestScore)
	if conceptScore > dualSignalMinimum && interestScore > dualSignalMinimum {
		topicBonus = min(1, topicBonus*dualSignalBonus)
	}

	var topicAddition float64
	switch {
	case profile.HasInterests():
		topicAddition = topicBonus * topicWeight
	case profile.IsGeneralist():
		topicAddition = conceptScore
	}

	var methodAddition float64
	if profile.HasMethods() {
		approach := s.approach.align(profile.EffectiveApproach(), text)
		methodAddition = (methodScore*methodMatchShare + approach*approachShare) * methodWeight
	}

	modifier, adjacent := s.fieldModifier(p.JournalField, profile)
	raw := (baseline + topicAddition + methodAddition) * modifier

	if topics == nil {
		topics = []string{}
	}
	sp := types.ScoredPaper{
		Paper:            p,
		RelevanceScore:   ClampScore(raw),
		MatchedInterests: interests,
		MatchedMethods:   methods,
		MatchedTopics:    topics,
		IsAdjacentField:  adjacent,
	}
	sp.Explanation = explain(sp, profile)
	return sp
}

// ClampScore clamps v to [MinScore, MaxScore] and rounds to one decimal.
func ClampScore(v float64) float64 {
	return math.Round(min(MaxScore, max(MinScore, v))*10) / 10
}

// explain builds the one-line explanation: up to two matched interests, the
// first matched method, a tier label and the adjacent-field note.
func explain(sp types.ScoredPaper, profile types.UserProfile) string {
	var parts []string
	if n := len(sp.MatchedInterests); n > 0 {
		parts = append(parts, strings.Join(sp.MatchedInterests[:min(n, 2)], ", "))
	}
	if n := len(sp.MatchedMethods); n > 0 {
		m := "Uses " + sp.MatchedMethods[0]
		if n > 1 {
			m += " + more"
		}
		parts = append(parts, m)
	}
	if label, ok := tierLabels[sp.JournalTier]; ok {
		parts = append(parts, label)
	}
	if sp.IsAdjacentField {
		parts = append(parts, explainAdjacent)
	}
	if len(parts) == 0 {
		if profile.IsGeneralist() {
			return explainGeneralist
		}
		return explainDefault
	}
	return strings.Join(parts, explainSeparator)
}

func (s *Scorer) summary(profile types.UserProfile, papers []types.ScoredPaper) string {
	strong := 0
	for _, p := range papers {
		if p.RelevanceScore >= s.strongMatch {
			strong++
		}
	}
	if !profile.HasInterests() && !profile.HasMethods() {
		return fmt.Sprintf("Showing quality research: %d papers · %d highly rated (%.1f+)", len(papers), strong, s.strongMatch)
	}
	return fmt.Sprintf("Analyzed %d papers · %d strong matches (%.1f+)", len(papers), strong, s.strongMatch)
}
