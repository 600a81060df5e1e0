// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"github.com/pdiddy/research-feed/internal/relevance"
	"github.com/pdiddy/research-feed/pkg/types"
)

// blender mixes a taxonomy score with the model's relevance and discovery
// ratings. Higher exploration moves weight from the taxonomy score to the
// model, and within the model's share from relevance to discovery.
type blender struct {
	taxonomyBase     float64
	explorationShift float64
	discoveryShare   float64
}

// newBlender expects cfg to have passed through withDefaults.
func newBlender(cfg types.RerankConfig) blender {
	return blender{
		taxonomyBase:     cfg.TaxonomyBase,
		explorationShift: *cfg.ExplorationShift,
		discoveryShare:   *cfg.DiscoveryShare,
	}
}

// taxonomyWeight is the share of the blended score taken from the taxonomy
// score. It decreases as exploration increases.
func (b blender) taxonomyWeight(exploration float64) float64 {
	return b.taxonomyBase - exploration*b.explorationShift
}

// aiCombined folds the two model ratings into one.
func (b blender) aiCombined(rel, disc, exploration float64) float64 {
	d := exploration * b.discoveryShare
	return rel*(1-d) + disc*d
}

// blend returns the final score, clamped to [1, 10] with one decimal.
func (b blender) blend(original, rel, disc, exploration float64) float64 {
	tw := b.taxonomyWeight(exploration)
	return relevance.ClampScore(original*tw + b.aiCombined(rel, disc, exploration)*(1-tw))
}

// apply writes the blended score and the model's annotations onto p.
func (b blender) apply(p *types.ScoredPaper, s aiScore, exploration float64) {
	original := p.RelevanceScore
	rel, disc := s.Relevance, s.Discovery
	p.OriginalScore = &original
	p.AIScore = &rel
	p.AIDiscovery = &disc
	p.AIExplanation = s.Reason
	p.RelevanceScore = b.blend(original, rel, disc, exploration)
}
