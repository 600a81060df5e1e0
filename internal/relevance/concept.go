// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"strings"

	"github.com/pdiddy/research-feed/internal/textnorm"
	"github.com/pdiddy/research-feed/pkg/types"
)

const (
	// conceptSaturation is the summed confidence that yields a full score.
	conceptSaturation = 1.5

	// maxMatchedConcepts caps the tag names kept for the explanation.
	maxMatchedConcepts = 5
)

// MatchConcepts scores a paper's classifier tags against target concepts.
// A tag matches when either normalized string contains the other. The score
// is min(1, Σ confidence / 1.5) over matching tags; at most five matching
// tag names are returned. Empty inputs score 0.
func MatchConcepts(concepts []types.Concept, targets []string) (float64, []string) {
	if len(concepts) == 0 || len(targets) == 0 {
		return 0, nil
	}
	norm := make([]string, 0, len(targets))
	for _, t := range targets {
		if t = textnorm.Tag(t); t != "" {
			norm = append(norm, t)
		}
	}

	var sum float64
	var matched []string
	for _, c := range concepts {
		tag := textnorm.Tag(c.Name)
		if tag == "" || !containsEither(tag, norm) {
			continue
		}
		sum += c.Confidence
		if len(matched) < maxMatchedConcepts {
			matched = append(matched, c.Name)
		}
	}
	return min(1, sum/conceptSaturation), matched
}

func containsEither(tag string, targets []string) bool {
	for _, t := range targets {
		if strings.Contains(tag, t) || strings.Contains(t, tag) {
			return true
		}
	}
	return false
}
