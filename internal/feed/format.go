// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package feed

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"go.yaml.in/yaml/v3"
)

// Output formats accepted by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

const (
	titleWidth   = 60
	journalWidth = 32
)

// Write renders f to w in the given format. An empty format means table.
func Write(w io.Writer, f Feed, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return writeTable(w, f)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

func writeTable(w io.Writer, f Feed) error {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Score", "Tier", "Title", "Journal", "Why")
	for i, e := range f.Papers {
		why := e.Explanation
		if e.AIExplanation != "" {
			why = e.AIExplanation
		}
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			scoreCell(e),
			string(e.MatchTier),
			clip(e.Title, titleWidth),
			clip(e.Journal, journalWidth),
			why,
		}); err != nil {
			return fmt.Errorf("rendering row %d: %w", i+1, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	fmt.Fprintln(w, f.Summary)
	if f.AI != nil {
		switch {
		case f.AI.Enhanced:
			fmt.Fprintf(w, "AI reranked %d papers (%s)\n", f.AI.PapersScored, f.AI.Outcome)
		default:
			fmt.Fprintln(w, "AI reranking unavailable, showing taxonomy scores")
		}
		if f.AI.Error != "" {
			fmt.Fprintf(w, "AI: %s\n", f.AI.Error)
		}
	}
	return nil
}

// scoreCell shows the blended score with the taxonomy score it came from.
func scoreCell(e Entry) string {
	s := strconv.FormatFloat(e.RelevanceScore, 'f', 1, 64)
	if e.OriginalScore != nil {
		s += " (" + strconv.FormatFloat(*e.OriginalScore, 'f', 1, 64) + ")"
	}
	return s
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
