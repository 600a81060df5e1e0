// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-feed/pkg/types"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score float64
		want  MatchTier
	}{
		{10, TierCore},
		{7.0, TierCore},
		{6.9, TierExplore},
		{4.0, TierExplore},
		{3.9, TierDiscovery},
		{1.0, TierDiscovery},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.score), "score %.1f", tt.score)
	}
}

func TestLoadProfileYAML(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "profile.yaml", `
academic_level: phd
primary_field: economics
interests: [Inequality, Labor Markets]
methods: [Difference-in-Differences]
approach: quantitative
breadth: specialist
adjacent_fields: [sociology]
exploration_level: 0.3
`)
	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "economics", p.PrimaryField)
	assert.Equal(t, []string{"Inequality", "Labor Markets"}, p.Interests)
	assert.Equal(t, types.ApproachQuantitative, p.Approach)
	assert.Equal(t, types.BreadthSpecialist, p.Breadth)
	assert.InDelta(t, 0.3, p.Exploration(), 1e-9)
}

func TestLoadProfileRejectsUnknownKeys(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "profile.yaml", "interest: [Inequality]\n")
	_, err := LoadProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interest")
}

func TestLoadProfileJSON(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "profile.json", `{"primary_field": "sociology", "methods": ["Survey Methods"]}`)
	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "sociology", p.PrimaryField)
	assert.Equal(t, []string{"Survey Methods"}, p.Methods)
	assert.Equal(t, types.DefaultExplorationLevel, p.Exploration())
}

func TestLoadProfileBadExtension(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "profile.txt", "primary_field: economics")
	_, err := LoadProfile(path)
	assert.ErrorContains(t, err, "unsupported file extension")
}

func TestLoadPapers(t *testing.T) {
	dir := t.TempDir()
	list := writeTestFile(t, dir, "list.yaml", `
- id: W1
  title: Income Inequality and Mobility
  journal: American Economic Review
  journal_tier: 1
  cited_by_count: 60
  published_at: 2026-09-01T00:00:00Z
  concepts:
    - {name: Economic inequality, confidence: 0.9}
- id: W2
  title: Stress and Sleep
`)
	wrapped := writeTestFile(t, dir, "wrapped.yaml", `
from: "2026-09-01"
to: "2026-09-30"
papers:
  - id: W3
    title: Another Paper
`)
	empty := writeTestFile(t, dir, "empty.yaml", "")

	papers, err := LoadPapers(list)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, 60, papers[0].CitedByCount)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), papers[0].PublishedAt.UTC())
	assert.Equal(t, []types.Concept{{Name: "Economic inequality", Confidence: 0.9}}, papers[0].Concepts)

	papers, err = LoadPapers(wrapped)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "W3", papers[0].ID)

	papers, err = LoadPapers(empty)
	require.NoError(t, err)
	assert.NotNil(t, papers)
	assert.Empty(t, papers)

	bad := writeTestFile(t, dir, "bad.yaml", "papers: 12\n")
	_, err = LoadPapers(bad)
	assert.Error(t, err)
}

func sampleFeed() Feed {
	orig := 6.2
	ai := 9.0
	scored := types.ScoreResult{
		Summary: "Analyzed 2 papers · 1 strong matches (7.0+)",
		Papers: []types.ScoredPaper{
			{
				Paper:            types.Paper{ID: "W1", Title: "Income Inequality and Mobility", Journal: "American Economic Review", JournalTier: 1},
				RelevanceScore:   8.0,
				MatchedInterests: []string{"Inequality"},
				MatchedMethods:   []string{},
				MatchedTopics:    []string{},
				Explanation:      "Inequality · Top journal",
			},
			{
				Paper:            types.Paper{ID: "W2", Title: "Stress and Sleep", Journal: "Psychological Science"},
				RelevanceScore:   3.5,
				MatchedInterests: []string{},
				MatchedMethods:   []string{},
				MatchedTopics:    []string{},
				Explanation:      "Related field",
				IsAdjacentField:  true,
			},
		},
	}
	reranked := types.RerankResult{
		Papers:         []types.ScoredPaper{scored.Papers[0], scored.Papers[1]},
		AIEnhanced:     true,
		AIPapersScored: 1,
		Outcome:        types.OutcomeBlended,
	}
	reranked.Papers[1].RelevanceScore = 7.6
	reranked.Papers[1].OriginalScore = &orig
	reranked.Papers[1].AIScore = &ai
	reranked.Papers[1].AIExplanation = "A surprising mechanism for your mobility work"

	profile := types.UserProfile{PrimaryField: "economics", Interests: []string{"Inequality"}}
	return New(profile, scored, &reranked, time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
}

func TestNewAssignsTiers(t *testing.T) {
	f := sampleFeed()
	require.Len(t, f.Papers, 2)
	assert.Equal(t, TierCore, f.Papers[0].MatchTier)
	assert.Equal(t, TierCore, f.Papers[1].MatchTier)
	require.NotNil(t, f.AI)
	assert.True(t, f.AI.Enhanced)

	plain := New(types.UserProfile{}, types.ScoreResult{Papers: []types.ScoredPaper{{RelevanceScore: 3.0}}}, nil, time.Now())
	assert.Nil(t, plain.AI)
	assert.Equal(t, TierDiscovery, plain.Papers[0].MatchTier)
}

func TestWriteAndReadFeed(t *testing.T) {
	for _, name := range []string{"feed.yaml", "feed.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", name)
			want := sampleFeed()
			require.NoError(t, WriteFeed(path, want))

			got, err := ReadFeed(path)
			require.NoError(t, err)
			assert.Equal(t, want.Summary, got.Summary)
			assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
			require.Len(t, got.Papers, 2)
			assert.Equal(t, "W1", got.Papers[0].ID)
			assert.Equal(t, TierCore, got.Papers[0].MatchTier)
			assert.Equal(t, []string{"Inequality"}, got.Papers[0].MatchedInterests)
			require.NotNil(t, got.Papers[1].OriginalScore)
			assert.Equal(t, 6.2, *got.Papers[1].OriginalScore)
			assert.True(t, got.Papers[1].IsAdjacentField)
			assert.Equal(t, types.OutcomeBlended, got.AI.Outcome)
		})
	}
}

func TestWritePapersRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "papers.yaml")
	pf := PaperFile{From: "2026-09-01", To: "2026-09-30", Papers: []types.Paper{{ID: "W1", Title: "A"}, {ID: "W2", Title: "B"}}}
	require.NoError(t, WritePapers(path, pf))

	papers, err := LoadPapers(path)
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, "B", papers[1].Title)
}

func TestWriteFormats(t *testing.T) {
	f := sampleFeed()

	var table bytes.Buffer
	require.NoError(t, Write(&table, f, ""))
	out := table.String()
	assert.Contains(t, out, "Income Inequality")
	assert.Contains(t, out, "7.6 (6.2)")
	assert.Contains(t, out, "surprising")
	assert.Contains(t, out, "Analyzed 2 papers")
	assert.Contains(t, out, "AI reranked 1 papers (blended)")

	var js bytes.Buffer
	require.NoError(t, Write(&js, f, "json"))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	papers, ok := decoded["papers"].([]any)
	require.True(t, ok)
	first, ok := papers[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "W1", first["id"])
	assert.Equal(t, "core", first["match_tier"])

	var ym bytes.Buffer
	require.NoError(t, Write(&ym, f, "YAML"))
	assert.Contains(t, ym.String(), "match_tier: core")
	assert.Contains(t, ym.String(), "Analyzed 2 papers")

	assert.ErrorContains(t, Write(&bytes.Buffer{}, f, "csv"), "csv")
}

func TestWriteTableWithoutAI(t *testing.T) {
	f := sampleFeed()
	f.AI = &AIStatus{Outcome: types.OutcomeUnchanged, Error: "AI scoring failed for all 1 batches: timeout"}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f, FormatTable))
	assert.Contains(t, buf.String(), "AI reranking unavailable")
	assert.Contains(t, buf.String(), "AI: AI scoring failed")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
}
