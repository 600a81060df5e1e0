// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feed reads profile and paper files and saves scored result sets.
// A saved feed can be reloaded and displayed later without re-scoring.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-feed/pkg/types"
)

// MatchTier buckets a final score for display. It plays no part in scoring.
type MatchTier string

const (
	TierCore      MatchTier = "core"
	TierExplore   MatchTier = "explore"
	TierDiscovery MatchTier = "discovery"
)

// Tier thresholds on the 1-10 score.
const (
	CoreThreshold    = 7.0
	ExploreThreshold = 4.0
)

// TierFor returns the match tier for a score: core at 7.0 and above,
// explore from 4.0, discovery below.
func TierFor(score float64) MatchTier {
	switch {
	case score >= CoreThreshold:
		return TierCore
	case score >= ExploreThreshold:
		return TierExplore
	}
	return TierDiscovery
}

// Entry is one scored paper as written to a feed file.
type Entry struct {
	types.ScoredPaper `yaml:",inline"`
	MatchTier         MatchTier `json:"match_tier" yaml:"match_tier"`
}

// AIStatus records how AI reranking went for a feed.
type AIStatus struct {
	Enhanced     bool                `json:"enhanced" yaml:"enhanced"`
	PapersScored int                 `json:"papers_scored" yaml:"papers_scored"`
	Outcome      types.RerankOutcome `json:"outcome" yaml:"outcome"`
	Error        string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Feed is a saved result set.
type Feed struct {
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Profile     types.UserProfile `json:"profile" yaml:"profile"`
	Summary     string            `json:"summary" yaml:"summary"`
	AI          *AIStatus         `json:"ai,omitempty" yaml:"ai,omitempty"`
	Papers      []Entry           `json:"papers" yaml:"papers"`
}

// New assembles a feed from a scoring pass and, when reranking ran, its
// result. The reranked order replaces the scored order.
func New(profile types.UserProfile, scored types.ScoreResult, reranked *types.RerankResult, now time.Time) Feed {
	f := Feed{
		GeneratedAt: now.UTC(),
		Profile:     profile,
		Summary:     scored.Summary,
	}
	papers := scored.Papers
	if reranked != nil {
		papers = reranked.Papers
		f.AI = &AIStatus{
			Enhanced:     reranked.AIEnhanced,
			PapersScored: reranked.AIPapersScored,
			Outcome:      reranked.Outcome,
			Error:        reranked.Error,
		}
	}
	f.Papers = make([]Entry, len(papers))
	for i, p := range papers {
		f.Papers[i] = Entry{ScoredPaper: p, MatchTier: TierFor(p.RelevanceScore)}
	}
	return f
}

// format returns "json" or "yaml" from a file extension.
func format(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".json":
		return "json", nil
	}
	return "", fmt.Errorf("unsupported file extension %q (want .yaml, .yml or .json)", filepath.Ext(path))
}

// decodeFile reads path as YAML or JSON into out. YAML decoding rejects
// unknown fields so misspelled profile keys are reported.
func decodeFile(path string, out any) error {
	kind, err := format(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return decode(data, kind, out)
}

func decode(data []byte, kind string, out any) error {
	if kind == "json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadProfile reads a user profile from a YAML or JSON file.
func LoadProfile(path string) (types.UserProfile, error) {
	var p types.UserProfile
	if err := decodeFile(path, &p); err != nil {
		return types.UserProfile{}, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return p, nil
}

// LoadPapers reads a paper list from a YAML or JSON file. The file holds
// either a bare list or a mapping with a "papers" key, as written by the
// fetch command.
func LoadPapers(path string) ([]types.Paper, error) {
	kind, err := format(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var list []types.Paper
	listErr := decode(data, kind, &list)
	if listErr == nil {
		if list == nil {
			list = []types.Paper{}
		}
		return list, nil
	}
	var wrapped PaperFile
	if err := decode(data, kind, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing papers %s: %w", path, listErr)
	}
	if wrapped.Papers == nil {
		wrapped.Papers = []types.Paper{}
	}
	return wrapped.Papers, nil
}

// PaperFile is the on-disk form of a fetched paper list.
type PaperFile struct {
	FetchedAt time.Time     `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
	From      string        `json:"from,omitempty" yaml:"from,omitempty"`
	To        string        `json:"to,omitempty" yaml:"to,omitempty"`
	Papers    []types.Paper `json:"papers" yaml:"papers"`
}

// WritePapers saves a paper list as YAML or JSON, chosen by extension.
func WritePapers(path string, pf PaperFile) error {
	return writeFile(path, pf)
}

// WriteFeed saves a feed as YAML or JSON, chosen by extension.
func WriteFeed(path string, f Feed) error {
	return writeFile(path, f)
}

// ReadFeed loads a previously saved feed.
func ReadFeed(path string) (*Feed, error) {
	var f Feed
	if err := decodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", path, err)
	}
	return &f, nil
}

func writeFile(path string, v any) error {
	kind, err := format(path)
	if err != nil {
		return err
	}
	var data []byte
	if kind == "json" {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
