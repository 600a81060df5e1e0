// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// KeywordEntry is a dictionary entry for one interest or method label: the
// canonical term, its synonyms and a weight in (0, 1].
type KeywordEntry struct {
	Term     string   `json:"term" yaml:"term" toml:"term" validate:"required"`
	Synonyms []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty" toml:"synonyms"`
	Weight   float64  `json:"weight" yaml:"weight" toml:"weight" validate:"gt=0,lte=1"`
}

// Terms returns the canonical term followed by its synonyms.
func (e KeywordEntry) Terms() []string {
	terms := make([]string, 0, len(e.Synonyms)+1)
	terms = append(terms, e.Term)
	return append(terms, e.Synonyms...)
}

// JournalInfo describes a journal in the reference catalog.
type JournalInfo struct {
	Name string `json:"name" yaml:"name" toml:"name" validate:"required"`

	// Tier is 1 (flagship) to 4 (other).
	Tier int `json:"tier" yaml:"tier" toml:"tier" validate:"min=1,max=4"`

	// Field is the journal's field tag, empty when untagged.
	Field string `json:"field,omitempty" yaml:"field,omitempty" toml:"field"`

	// ISSN is the print or linking ISSN, used to restrict metadata fetches
	// to catalog journals.
	ISSN string `json:"issn,omitempty" yaml:"issn,omitempty" toml:"issn"`

	// Aliases are alternate display names the metadata source may report.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty" toml:"aliases"`
}
