// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"github.com/pdiddy/research-feed/internal/textnorm"
	"github.com/pdiddy/research-feed/pkg/types"
)

// bonus multiplies the combined score when at least minMatched labels matched.
type bonus struct {
	minMatched int
	factor     float64
}

// listScorer applies the keyword matcher across an ordered label list. Later
// labels are discounted by position; several matches earn a bonus.
type listScorer struct {
	decayStep  float64
	decayFloor float64
	bestShare  float64 // the average gets the remainder
	bonuses    []bonus // highest minMatched first
	lookup     func(label string) (types.KeywordEntry, bool)
}

var (
	interestParams = listScorer{
		decayStep:  0.08,
		decayFloor: 0.6,
		bestShare:  0.6,
		bonuses:    []bonus{{3, 1.2}, {2, 1.1}},
	}
	methodParams = listScorer{
		decayStep:  0.1,
		decayFloor: 0.5,
		bestShare:  0.7,
		bonuses:    []bonus{{2, 1.15}},
	}
)

// positionWeight is the decay applied to the label at idx.
func (s listScorer) positionWeight(idx int) float64 {
	return max(s.decayFloor, 1-float64(idx)*s.decayStep)
}

// score matches every label against normalized text and returns the combined
// score in [0, 1] with the matched labels in list order. Labels without a
// dictionary entry and repeated labels contribute nothing.
func (s listScorer) score(labels []string, text string) (float64, []string) {
	matched := []string{}
	if len(labels) == 0 {
		return 0, matched
	}
	var subs []float64
	seen := make(map[string]bool, len(labels))
	for idx, label := range labels {
		key := textnorm.Tag(label)
		if seen[key] {
			continue
		}
		seen[key] = true
		entry, ok := s.lookup(label)
		if !ok {
			continue
		}
		if _, sub := matchKeyword(text, entry); sub > 0 {
			subs = append(subs, sub*s.positionWeight(idx))
			matched = append(matched, label)
		}
	}
	if len(subs) == 0 {
		return 0, matched
	}

	var best, sum float64
	for _, v := range subs {
		best = max(best, v)
		sum += v
	}
	avg := sum / float64(len(subs))
	combined := best*s.bestShare + avg*(1-s.bestShare)
	for _, b := range s.bonuses {
		if len(subs) >= b.minMatched {
			combined *= b.factor
			break
		}
	}
	return min(1, combined), matched
}
