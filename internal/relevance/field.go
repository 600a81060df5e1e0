// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import "github.com/pdiddy/research-feed/pkg/types"

const (
	neutralFieldModifier  = 1.0
	optedInFieldModifier  = 0.95
	adjacentFieldModifier = 0.7
)

// fieldModifier returns the multiplier for a paper's journal field and
// whether the field is adjacent. Untagged and core fields are neutral.
func (s *Scorer) fieldModifier(field string, profile types.UserProfile) (float64, bool) {
	if field == "" || !s.catalog.IsAdjacent(field) {
		return neutralFieldModifier, false
	}
	if profile.OptedInto(field) {
		return optedInFieldModifier, true
	}
	return adjacentFieldModifier, true
}
