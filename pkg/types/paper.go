// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Journal tiers. Tier 4 covers every journal the catalog does not rank.
const (
	TierFlagship  = 1
	TierTopField  = 2
	TierExcellent = 3
	TierOther     = 4
)

// Concept is a classifier tag attached to a paper by the metadata source,
// with the classifier's confidence in [0, 1].
type Concept struct {
	Name       string  `json:"name" yaml:"name" validate:"required"`
	Confidence float64 `json:"confidence" yaml:"confidence" validate:"min=0,max=1"`
}

// Paper holds the normalized metadata the metadata source returns for one
// candidate paper.
type Paper struct {
	// ID is the source identifier (an OpenAlex work ID or a DOI).
	ID string `json:"id" yaml:"id" validate:"required"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title" validate:"required"`

	// Abstract is the paper abstract. It may be empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Journal is the journal display name.
	Journal string `json:"journal" yaml:"journal"`

	// JournalTier is 1 (flagship) to 4 (other). Zero means unknown: the
	// scorer then consults the journal catalog and defaults to tier 4.
	JournalTier int `json:"journal_tier" yaml:"journal_tier" validate:"min=0,max=4"`

	// JournalField is the journal's field tag. Empty means untagged.
	JournalField string `json:"journal_field,omitempty" yaml:"journal_field,omitempty"`

	// PublishedAt is the publication date.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// CitedByCount is the citation count reported by the source.
	CitedByCount int `json:"cited_by_count" yaml:"cited_by_count" validate:"min=0"`

	// Concepts lists classifier tags with confidence.
	Concepts []Concept `json:"concepts,omitempty" yaml:"concepts,omitempty" validate:"omitempty,dive"`

	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	OpenAccess    bool   `json:"open_access" yaml:"open_access"`
	OpenAccessURL string `json:"open_access_url,omitempty" yaml:"open_access_url,omitempty"`
}

// ScoredPaper is a Paper with its relevance score and explanation. The
// AI fields are set only after reranking.
type ScoredPaper struct {
	Paper `yaml:",inline"`

	// RelevanceScore is in [1.0, 10.0] with one decimal of precision.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// MatchedInterests lists the profile interests that matched, in profile order.
	MatchedInterests []string `json:"matched_interests" yaml:"matched_interests"`

	// MatchedMethods lists the profile methods that matched, in profile order.
	MatchedMethods []string `json:"matched_methods" yaml:"matched_methods"`

	// MatchedTopics lists the classifier tags that matched target concepts.
	MatchedTopics []string `json:"matched_topics" yaml:"matched_topics"`

	// Explanation is a one-line, human-readable justification.
	Explanation string `json:"explanation" yaml:"explanation"`

	// IsAdjacentField is true when the journal belongs to an adjacent field.
	IsAdjacentField bool `json:"is_adjacent_field" yaml:"is_adjacent_field"`

	AIScore       *float64 `json:"ai_score,omitempty" yaml:"ai_score,omitempty"`
	AIDiscovery   *float64 `json:"ai_discovery,omitempty" yaml:"ai_discovery,omitempty"`
	OriginalScore *float64 `json:"original_score,omitempty" yaml:"original_score,omitempty"`
	AIExplanation string   `json:"ai_explanation,omitempty" yaml:"ai_explanation,omitempty"`
}
