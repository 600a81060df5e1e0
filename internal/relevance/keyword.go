// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"strings"

	"github.com/pdiddy/research-feed/internal/textnorm"
	"github.com/pdiddy/research-feed/pkg/types"
)

// keywordSteps maps the number of distinct matching terms (capped at 3) to
// the share of the entry weight awarded.
var keywordSteps = [...]float64{0, 0.6, 0.8, 1.0}

// MatchKeyword counts the distinct terms of entry (canonical term plus
// synonyms) contained in text and maps the count to a weighted sub-score:
// 0 → 0, 1 → 0.6w, 2 → 0.8w, 3 or more → w. Repeated occurrences of one
// term count once.
func MatchKeyword(text string, entry types.KeywordEntry) (int, float64) {
	return matchKeyword(textnorm.Normalize(text), entry)
}

// matchKeyword is MatchKeyword over already-normalized text.
func matchKeyword(text string, entry types.KeywordEntry) (int, float64) {
	if text == "" {
		return 0, 0
	}
	seen := make(map[string]bool, len(entry.Synonyms)+1)
	count := 0
	for _, term := range entry.Terms() {
		t := textnorm.Normalize(term)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if strings.Contains(text, t) {
			count++
		}
	}
	return count, keywordSteps[min(count, len(keywordSteps)-1)] * entry.Weight
}
