// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Approach is the researcher's methodological preference.
type Approach string

const (
	ApproachQuantitative Approach = "quantitative"
	ApproachQualitative  Approach = "qualitative"
	ApproachBoth         Approach = "both"
	ApproachNoPreference Approach = "no_preference"
)

// Breadth classifies how narrowly a researcher follows their field.
type Breadth string

const (
	BreadthGeneralist Breadth = "generalist"
	BreadthSpecialist Breadth = "specialist"
	BreadthExplorer   Breadth = "explorer"
)

// DefaultExplorationLevel is used when a profile does not set one.
const DefaultExplorationLevel = 0.5

// UserProfile is the structured description of a researcher that every
// scoring pass reads. It is never mutated by the engine.
//
// Interests and Methods are ordered: the first entry carries the most weight.
type UserProfile struct {
	// AcademicLevel is free text such as "phd", "postdoc" or "faculty".
	AcademicLevel string `json:"academic_level" yaml:"academic_level" mapstructure:"academic_level"`

	// PrimaryField is the field tag the researcher works in (e.g. "economics").
	PrimaryField string `json:"primary_field" yaml:"primary_field" mapstructure:"primary_field"`

	// Interests lists topic labels in priority order.
	Interests []string `json:"interests" yaml:"interests" mapstructure:"interests" validate:"omitempty,dive,required"`

	// Methods lists method labels in priority order.
	Methods []string `json:"methods" yaml:"methods" mapstructure:"methods" validate:"omitempty,dive,required"`

	// Approach is the preferred methodological approach. Empty means no preference.
	Approach Approach `json:"approach" yaml:"approach" mapstructure:"approach" validate:"omitempty,oneof=quantitative qualitative both no_preference"`

	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// Breadth is the generalist/specialist/explorer classification.
	Breadth Breadth `json:"breadth,omitempty" yaml:"breadth,omitempty" mapstructure:"breadth" validate:"omitempty,oneof=generalist specialist explorer"`

	// AdjacentFields lists the adjacent field tags the researcher opted into.
	AdjacentFields []string `json:"adjacent_fields,omitempty" yaml:"adjacent_fields,omitempty" mapstructure:"adjacent_fields"`

	// ExplorationLevel shifts reranking weight from taxonomy matching (0)
	// toward AI-discovered relevance (1). Nil means DefaultExplorationLevel.
	ExplorationLevel *float64 `json:"exploration_level,omitempty" yaml:"exploration_level,omitempty" mapstructure:"exploration_level" validate:"omitempty,min=0,max=1"`
}

// HasInterests reports whether the profile lists at least one interest.
func (p UserProfile) HasInterests() bool { return len(p.Interests) > 0 }

// HasMethods reports whether the profile lists at least one method.
func (p UserProfile) HasMethods() bool { return len(p.Methods) > 0 }

// IsGeneralist reports whether the researcher is classified as a generalist.
func (p UserProfile) IsGeneralist() bool { return p.Breadth == BreadthGeneralist }

// Exploration returns the exploration level clamped to [0, 1].
func (p UserProfile) Exploration() float64 {
	if p.ExplorationLevel == nil {
		return DefaultExplorationLevel
	}
	e := *p.ExplorationLevel
	switch {
	case e < 0:
		return 0
	case e > 1:
		return 1
	}
	return e
}

// EffectiveApproach maps the empty approach to ApproachNoPreference.
func (p UserProfile) EffectiveApproach() Approach {
	if p.Approach == "" {
		return ApproachNoPreference
	}
	return p.Approach
}

// OptedInto reports whether the researcher opted into the adjacent field tag.
// Comparison ignores case, surrounding whitespace and the choice between
// "_" and " " as word separator.
func (p UserProfile) OptedInto(field string) bool {
	field = fieldKey(field)
	for _, f := range p.AdjacentFields {
		if fieldKey(f) == field {
			return true
		}
	}
	return false
}

func fieldKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(s, "_", " "))), " ")
}

// WithExploration returns a copy of the profile with the exploration level set.
func (p UserProfile) WithExploration(level float64) UserProfile {
	p.ExplorationLevel = &level
	return p
}
