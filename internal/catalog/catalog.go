// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the read-only reference data the scorer consults:
// the journal catalog (name → tier, field), the interest and method keyword
// dictionaries, the concept lists used for classifier-tag matching, the set
// of adjacent fields and the approach signal terms.
//
// A Catalog is built once and passed to the scorer explicitly. The embedded
// default can be overridden per run with a YAML or TOML file (see Load).
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-feed/internal/textnorm"
	"github.com/pdiddy/research-feed/pkg/types"
)

//go:embed default.yaml
var defaultData []byte

// DefaultTier is assigned to papers whose journal is not in the catalog.
const DefaultTier = types.TierOther

// ApproachSignals lists the terms whose presence suggests a quantitative or
// qualitative paper.
type ApproachSignals struct {
	Quantitative []string `yaml:"quantitative" toml:"quantitative"`
	Qualitative  []string `yaml:"qualitative" toml:"qualitative"`
}

// Catalog is the reference data. The exported fields are the serialized form;
// lookups go through the methods, which use normalized indices.
type Catalog struct {
	Journals         []types.JournalInfo           `yaml:"journals" toml:"journals"`
	AdjacentFields   []string                      `yaml:"adjacent_fields" toml:"adjacent_fields"`
	Interests        map[string]types.KeywordEntry `yaml:"interests" toml:"interests"`
	Methods          map[string]types.KeywordEntry `yaml:"methods" toml:"methods"`
	InterestConcepts map[string][]string           `yaml:"interest_concepts" toml:"interest_concepts"`
	FieldConcepts    map[string][]string           `yaml:"field_concepts" toml:"field_concepts"`
	ApproachSignals  ApproachSignals               `yaml:"approach_signals" toml:"approach_signals"`

	journals  map[string]int // normalized name or alias -> index into Journals
	issns     map[string]int
	adjacent  map[string]bool
	interests map[string]string // normalized label -> map key
	methods   map[string]string
	iconcepts map[string]string
	fconcepts map[string]string
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the embedded catalog. The returned value is shared and
// must not be modified.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := parseYAML(defaultData)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
		}
		if err := c.Validate(); err != nil {
			panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func parseYAML(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog yaml: %w", err)
	}
	c.index()
	return &c, nil
}

// index rebuilds the lookup tables from the exported fields.
func (c *Catalog) index() {
	c.journals = make(map[string]int, len(c.Journals)*2)
	c.issns = make(map[string]int, len(c.Journals))
	for i, j := range c.Journals {
		c.journals[journalKey(j.Name)] = i
		for _, a := range j.Aliases {
			if _, ok := c.journals[journalKey(a)]; !ok {
				c.journals[journalKey(a)] = i
			}
		}
		if j.ISSN != "" {
			c.issns[strings.ToUpper(j.ISSN)] = i
		}
	}

	c.adjacent = make(map[string]bool, len(c.AdjacentFields))
	for _, f := range c.AdjacentFields {
		c.adjacent[textnorm.Tag(f)] = true
	}

	c.interests = labelIndex(c.Interests)
	c.methods = labelIndex(c.Methods)
	c.iconcepts = labelIndex(c.InterestConcepts)
	c.fconcepts = labelIndex(c.FieldConcepts)
}

func labelIndex[V any](m map[string]V) map[string]string {
	idx := make(map[string]string, len(m))
	for k := range m {
		idx[textnorm.Tag(k)] = k
	}
	return idx
}

// journalKey drops a leading "the" so "The Economic Journal" and
// "Economic Journal" resolve to the same entry.
func journalKey(name string) string {
	return strings.TrimPrefix(textnorm.Normalize(name), "the ")
}

// Journal looks a journal up by name or alias.
func (c *Catalog) Journal(name string) (types.JournalInfo, bool) {
	i, ok := c.journals[journalKey(name)]
	if !ok {
		return types.JournalInfo{}, false
	}
	return c.Journals[i], true
}

// JournalByISSN looks a journal up by ISSN.
func (c *Catalog) JournalByISSN(issn string) (types.JournalInfo, bool) {
	i, ok := c.issns[strings.ToUpper(strings.TrimSpace(issn))]
	if !ok {
		return types.JournalInfo{}, false
	}
	return c.Journals[i], true
}

// IsAdjacent reports whether field is one of the adjacent fields.
func (c *Catalog) IsAdjacent(field string) bool {
	if field == "" {
		return false
	}
	return c.adjacent[textnorm.Tag(field)]
}

// Interest returns the keyword entry for an interest label.
func (c *Catalog) Interest(label string) (types.KeywordEntry, bool) {
	k, ok := c.interests[textnorm.Tag(label)]
	if !ok {
		return types.KeywordEntry{}, false
	}
	return c.Interests[k], true
}

// Method returns the keyword entry for a method label.
func (c *Catalog) Method(label string) (types.KeywordEntry, bool) {
	k, ok := c.methods[textnorm.Tag(label)]
	if !ok {
		return types.KeywordEntry{}, false
	}
	return c.Methods[k], true
}

// ConceptsForInterest returns the classifier tags mapped to an interest label.
func (c *Catalog) ConceptsForInterest(label string) []string {
	if k, ok := c.iconcepts[textnorm.Tag(label)]; ok {
		return c.InterestConcepts[k]
	}
	return nil
}

// ConceptsForField returns the classifier tags mapped to a field.
func (c *Catalog) ConceptsForField(field string) []string {
	if k, ok := c.fconcepts[textnorm.Tag(field)]; ok {
		return c.FieldConcepts[k]
	}
	return nil
}

// Enrich fills a paper's tier and field from the catalog when the metadata
// source left them unset. Unknown journals get DefaultTier and no field.
func (c *Catalog) Enrich(p *types.Paper) {
	j, ok := c.Journal(p.Journal)
	if p.JournalTier == 0 {
		p.JournalTier = DefaultTier
		if ok {
			p.JournalTier = j.Tier
		}
	}
	if p.JournalField == "" && ok {
		p.JournalField = j.Field
	}
}

// ISSNs resolves journal names to ISSNs. With no names it returns the ISSN
// of every catalog journal that has one.
func (c *Catalog) ISSNs(names []string) ([]string, error) {
	if len(names) == 0 {
		out := make([]string, 0, len(c.Journals))
		for _, j := range c.Journals {
			if j.ISSN != "" {
				out = append(out, j.ISSN)
			}
		}
		return out, nil
	}
	out := make([]string, 0, len(names))
	var unknown []string
	for _, n := range names {
		j, ok := c.Journal(n)
		if !ok || j.ISSN == "" {
			unknown = append(unknown, n)
			continue
		}
		out = append(out, j.ISSN)
	}
	if len(unknown) > 0 {
		return out, fmt.Errorf("journals without a catalog ISSN: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// Labels returns the sorted interest and method labels.
func (c *Catalog) Labels() (interests, methods []string) {
	return sortedKeys(c.Interests), sortedKeys(c.Methods)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// clone returns a copy whose maps and slices can be modified without
// touching c.
func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		Journals:       append([]types.JournalInfo(nil), c.Journals...),
		AdjacentFields: append([]string(nil), c.AdjacentFields...),
		ApproachSignals: ApproachSignals{
			Quantitative: append([]string(nil), c.ApproachSignals.Quantitative...),
			Qualitative:  append([]string(nil), c.ApproachSignals.Qualitative...),
		},
		Interests:        copyMap(c.Interests),
		Methods:          copyMap(c.Methods),
		InterestConcepts: copyMap(c.InterestConcepts),
		FieldConcepts:    copyMap(c.FieldConcepts),
	}
	out.index()
	return out
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
