// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/pdiddy/research-feed/internal/catalog"
	"github.com/pdiddy/research-feed/internal/textnorm"
	"github.com/pdiddy/research-feed/pkg/types"
)

// DetectedApproach is the approach label the signal heuristic assigns to a
// paper's text.
type DetectedApproach string

const (
	DetectedQuantitative DetectedApproach = "quantitative"
	DetectedQualitative  DetectedApproach = "qualitative"
	DetectedMixed        DetectedApproach = "mixed"
	DetectedUnknown      DetectedApproach = "unknown"
)

// signalThreshold is the number of distinct signal terms a text must exceed
// to be labelled with that approach.
const signalThreshold = 2

// Alignment scores.
const (
	alignmentNeutral  = 0.5
	alignmentExact    = 1.0
	alignmentMismatch = 0.3
)

// partialAlignment scores detected labels that neither equal nor contradict
// the preference.
var partialAlignment = map[DetectedApproach]float64{
	DetectedMixed:   0.7,
	DetectedUnknown: alignmentNeutral,
}

// approachAligner is a keyword-count heuristic, not a classifier. It counts
// how many distinct quantitative and qualitative signal terms occur in the
// text and compares the resulting label with the researcher's preference.
type approachAligner struct {
	quant *signalSet
	qual  *signalSet
}

type signalSet struct {
	matcher *ahocorasick.Matcher
	terms   []string
}

func newSignalSet(terms []string) *signalSet {
	s := &signalSet{}
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		if t = textnorm.Normalize(t); t != "" && !seen[t] {
			seen[t] = true
			s.terms = append(s.terms, t)
		}
	}
	if len(s.terms) > 0 {
		s.matcher = ahocorasick.NewStringMatcher(s.terms)
	}
	return s
}

// count returns the number of distinct terms found in normalized text.
// Repeating one term does not raise the count, so a single stock phrase
// cannot push text over the threshold on its own.
func (s *signalSet) count(text string) int {
	if s.matcher == nil || text == "" {
		return 0
	}
	found := make(map[int]struct{})
	for _, idx := range s.matcher.MatchThreadSafe([]byte(text)) {
		found[idx] = struct{}{}
	}
	return len(found)
}

func newApproachAligner(signals catalog.ApproachSignals) *approachAligner {
	return &approachAligner{
		quant: newSignalSet(signals.Quantitative),
		qual:  newSignalSet(signals.Qualitative),
	}
}

// detect labels normalized text.
func (a *approachAligner) detect(text string) DetectedApproach {
	quant := a.quant.count(text) > signalThreshold
	qual := a.qual.count(text) > signalThreshold
	switch {
	case quant && qual:
		return DetectedMixed
	case quant:
		return DetectedQuantitative
	case qual:
		return DetectedQualitative
	}
	return DetectedUnknown
}

// align scores how well normalized text fits the preference.
func (a *approachAligner) align(pref types.Approach, text string) float64 {
	switch pref {
	case "", types.ApproachNoPreference, types.ApproachBoth:
		return alignmentNeutral
	}
	detected := a.detect(text)
	if string(detected) == string(pref) {
		return alignmentExact
	}
	if v, ok := partialAlignment[detected]; ok {
		return v
	}
	return alignmentMismatch
}
