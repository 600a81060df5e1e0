// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rerank

import (
	"bytes"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/pdiddy/research-feed/pkg/types"
)

// rankingPromptTmpl is sent once per batch. Papers are numbered from 1 and
// the model answers with the same numbers.
var rankingPromptTmpl = template.Must(template.New("ranking").Funcs(template.FuncMap{
	"join": func(items []string) string {
		if len(items) == 0 {
			return "none given"
		}
		return strings.Join(items, ", ")
	},
	"orUnknown": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "not given"
		}
		return s
	},
}).Parse(`You are helping a researcher decide which newly published papers to read. Rate each paper below for this researcher.

Researcher profile:
- Academic level: {{orUnknown .Profile.AcademicLevel}}
- Primary field: {{orUnknown .Profile.PrimaryField}}
- Interests, most important first: {{join .Profile.Interests}}
- Methods, most important first: {{join .Profile.Methods}}
- Methodological approach: {{.Approach}}
- Adjacent fields they follow: {{join .Profile.AdjacentFields}}
- Exploration preference: {{.ExplorationLabel}} ({{printf "%.1f" .Exploration}} on a scale from 0 = stay close to my interests to 1 = surprise me)

For each paper give:
- relevance: 1 to 10, how directly the paper serves the stated interests and methods
- discovery: 1 to 10, how valuable it is as an unexpected but useful find beyond their usual focus
- reason: one short sentence addressed to the researcher

Respond with only a JSON array containing one object per paper and no other text:
[{"index": 1, "relevance": 8, "discovery": 4, "reason": "..."}]

Papers:
{{range .Papers}}
[{{.Index}}] {{.Title}}
Journal: {{orUnknown .Journal}}
Abstract: {{orUnknown .Abstract}}
{{end}}`))

type promptPaper struct {
	Index    int
	Title    string
	Journal  string
	Abstract string
}

type promptData struct {
	Profile          types.UserProfile
	Approach         string
	Exploration      float64
	ExplorationLabel string
	Papers           []promptPaper
}

// explorationLabel describes an exploration level in words.
func explorationLabel(e float64) string {
	switch {
	case e < 0.34:
		return "narrow"
	case e < 0.67:
		return "balanced"
	}
	return "exploratory"
}

// renderPrompt builds the prompt for one batch. Abstracts longer than
// abstractChars runes are cut and marked with an ellipsis.
func renderPrompt(profile types.UserProfile, batch []types.ScoredPaper, abstractChars int) (string, error) {
	data := promptData{
		Profile:          profile,
		Approach:         strings.ReplaceAll(string(profile.EffectiveApproach()), "_", " "),
		Exploration:      profile.Exploration(),
		ExplorationLabel: explorationLabel(profile.Exploration()),
		Papers:           make([]promptPaper, len(batch)),
	}
	for i, p := range batch {
		data.Papers[i] = promptPaper{
			Index:    i + 1,
			Title:    p.Title,
			Journal:  p.Journal,
			Abstract: truncateRunes(strings.Join(strings.Fields(p.Abstract), " "), abstractChars),
		}
	}

	var buf bytes.Buffer
	if err := rankingPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}
