// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-feed/internal/textnorm"
	"github.com/pdiddy/research-feed/internal/validation"
)

// ErrUnsupportedFormat is returned for catalog files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// Load reads a catalog file and merges it over the embedded default. Entries
// in the file replace default entries with the same (normalized) label or
// journal name; everything else in the default is kept. The format is taken
// from the extension: .yaml, .yml or .toml.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	override, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c := Default().Merge(override)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog in the given format (".yaml", ".yml", ".toml",
// with or without the dot). The result is not merged with the default.
func Parse(data []byte, format string) (*Catalog, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		return parseYAML(data)
	case "toml":
		var c Catalog
		if err := toml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parsing catalog toml: %w", err)
		}
		c.index()
		return &c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Write encodes the catalog in the given format.
func (c *Catalog) Write(w io.Writer, format string) error {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encoding catalog yaml: %w", err)
		}
		return enc.Close()
	case "toml":
		if err := toml.NewEncoder(w).Encode(c); err != nil {
			return fmt.Errorf("encoding catalog toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Merge returns a new catalog holding c with override applied on top.
// Neither input is modified. Non-empty adjacent field and signal lists in
// override replace those of c wholesale.
func (c *Catalog) Merge(override *Catalog) *Catalog {
	out := c.clone()
	for _, j := range override.Journals {
		if i, ok := out.journals[journalKey(j.Name)]; ok {
			out.Journals[i] = j
			continue
		}
		out.Journals = append(out.Journals, j)
	}
	if len(override.AdjacentFields) > 0 {
		out.AdjacentFields = append([]string(nil), override.AdjacentFields...)
	}
	if len(override.ApproachSignals.Quantitative) > 0 {
		out.ApproachSignals.Quantitative = append([]string(nil), override.ApproachSignals.Quantitative...)
	}
	if len(override.ApproachSignals.Qualitative) > 0 {
		out.ApproachSignals.Qualitative = append([]string(nil), override.ApproachSignals.Qualitative...)
	}
	mergeLabels(out.Interests, override.Interests)
	mergeLabels(out.Methods, override.Methods)
	mergeLabels(out.InterestConcepts, override.InterestConcepts)
	mergeLabels(out.FieldConcepts, override.FieldConcepts)
	out.index()
	return out
}

// mergeLabels copies src into dst, dropping any dst key that normalizes to
// the same label as a src key.
func mergeLabels[V any](dst, src map[string]V) {
	if len(src) == 0 {
		return
	}
	existing := labelIndex(dst)
	for k, v := range src {
		if old, ok := existing[textnorm.Tag(k)]; ok {
			delete(dst, old)
		}
		dst[k] = v
	}
}

// Validate checks every journal and keyword entry.
func (c *Catalog) Validate() error {
	v := validation.Get()
	var problems []string
	for i, j := range c.Journals {
		if err := v.Struct(j); err != nil {
			problems = append(problems, fmt.Sprintf("journals[%d] %q: %v", i, j.Name, err))
		}
	}
	for _, label := range sortedKeys(c.Interests) {
		if err := v.Struct(c.Interests[label]); err != nil {
			problems = append(problems, fmt.Sprintf("interests[%q]: %v", label, err))
		}
	}
	for _, label := range sortedKeys(c.Methods) {
		if err := v.Struct(c.Methods[label]); err != nil {
			problems = append(problems, fmt.Sprintf("methods[%q]: %v", label, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}
