// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"math"
	"strings"

	"github.com/goccy/go-json"
)

const (
	minAIScore = 1.0
	maxAIScore = 10.0
)

// aiScore is one usable entry of a model reply. Index is 1-based within the batch.
type aiScore struct {
	Index     int
	Relevance float64
	Discovery float64
	Reason    string
}

// rawScore accepts both the current reply shape and the legacy single-score
// shape ({"index", "score", "reason"}).
type rawScore struct {
	Index     *float64 `json:"index"`
	Relevance *float64 `json:"relevance"`
	Discovery *float64 `json:"discovery"`
	Score     *float64 `json:"score"`
	Reason    string   `json:"reason"`
}

// parseScores extracts the usable entries from a model reply for a batch of
// batchLen papers. It tolerates code fences, prose around the array and
// malformed entries, which are dropped. Entries with an index outside
// [1, batchLen], a rating outside [1, 10] or a repeated index are dropped;
// the first entry for an index wins.
func parseScores(reply string, batchLen int) []aiScore {
	start := strings.IndexByte(reply, '[')
	if start < 0 {
		return nil
	}

	// Prose before the array may itself contain brackets, so try each one.
	for i := start; ; {
		var elems []json.RawMessage
		if err := json.NewDecoder(strings.NewReader(reply[i:])).Decode(&elems); err == nil {
			if out := collectScores(elems, batchLen); len(out) > 0 {
				return out
			}
		}
		next := strings.IndexByte(reply[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return collectScores(objectSpans(reply[start:]), batchLen)
}

func collectScores(elems []json.RawMessage, batchLen int) []aiScore {
	seen := make(map[int]bool, len(elems))
	var out []aiScore
	for _, raw := range elems {
		s, ok := toScore(raw, batchLen)
		if !ok || seen[s.Index] {
			continue
		}
		seen[s.Index] = true
		out = append(out, s)
	}
	return out
}

func toScore(raw json.RawMessage, batchLen int) (aiScore, bool) {
	var r rawScore
	if err := json.Unmarshal(raw, &r); err != nil || r.Index == nil {
		return aiScore{}, false
	}
	idx := *r.Index
	if idx != math.Trunc(idx) || idx < 1 || int(idx) > batchLen {
		return aiScore{}, false
	}

	rel, disc := r.Relevance, r.Discovery
	switch {
	case rel == nil && r.Score != nil:
		rel, disc = r.Score, r.Score
	case rel == nil:
		return aiScore{}, false
	case disc == nil:
		disc = rel
	}
	if !inRange(*rel) || !inRange(*disc) {
		return aiScore{}, false
	}
	return aiScore{
		Index:     int(idx),
		Relevance: *rel,
		Discovery: *disc,
		Reason:    strings.TrimSpace(r.Reason),
	}, true
}

func inRange(v float64) bool {
	return v >= minAIScore && v <= maxAIScore
}

// objectSpans returns every top-level {...} span in s, skipping braces
// inside JSON strings. It is the fallback when the array as a whole does not
// decode.
func objectSpans(s string) []json.RawMessage {
	var spans []json.RawMessage
	depth, start := 0, -1
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, json.RawMessage(s[start:i+1]))
				start = -1
			}
		case ']':
			if depth == 0 {
				return spans
			}
		}
	}
	return spans
}
