// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

// tierScores maps journal tier to a quality share. Unlisted tiers get
// defaultTierScore.
var tierScores = map[int]float64{
	1: 1.0,
	2: 0.8,
	3: 0.6,
}

const defaultTierScore = 0.3

// citeBucket awards score to papers with at least minCites citations.
type citeBucket struct {
	minCites int
	score    float64
}

// citeBuckets are checked in order. Uncited papers fall through to
// uncitedScore rather than zero.
var citeBuckets = []citeBucket{
	{50, 1.0},
	{20, 0.85},
	{10, 0.7},
	{5, 0.55},
	{1, 0.4},
}

const uncitedScore = 0.3

const (
	baselineFloor = 3.0
	baselineSpan  = 2.0
	tierShare     = 0.6
	citeShare     = 0.4
)

func tierScore(tier int) float64 {
	if s, ok := tierScores[tier]; ok {
		return s
	}
	return defaultTierScore
}

func citeScore(cites int) float64 {
	for _, b := range citeBuckets {
		if cites >= b.minCites {
			return b.score
		}
	}
	return uncitedScore
}

// Baseline returns the profile-independent quality floor for a paper, in
// [3.0, 5.0].
func Baseline(tier, cites int) float64 {
	return baselineFloor + (tierScore(tier)*tierShare+citeScore(cites)*citeShare)*baselineSpan
}
