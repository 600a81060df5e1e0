// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-feed/internal/feed"
)

var showCmd = &cobra.Command{
	Use:   "show <feed-file>",
	Short: "Display a saved feed",
	Long: `Show prints a feed saved by "score --out" without scoring again.

Examples:
  research-feed show feed.yaml
  research-feed show feed.yaml --format json --top 10`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("format", feed.FormatTable, "output format: table, json or yaml")
	showCmd.Flags().Int("top", 0, "show only the first N papers (0 = all)")
	showCmd.Flags().String("tier", "", "show only papers in this match tier: core, explore or discovery")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	top, _ := cmd.Flags().GetInt("top")
	tier, _ := cmd.Flags().GetString("tier")

	f, err := feed.ReadFeed(args[0])
	if err != nil {
		return err
	}

	if tier != "" {
		switch feed.MatchTier(tier) {
		case feed.TierCore, feed.TierExplore, feed.TierDiscovery:
		default:
			return fmt.Errorf("unknown tier %q (want core, explore or discovery)", tier)
		}
		kept := f.Papers[:0]
		for _, e := range f.Papers {
			if e.MatchTier == feed.MatchTier(tier) {
				kept = append(kept, e)
			}
		}
		f.Papers = kept
	}
	if top > 0 && top < len(f.Papers) {
		f.Papers = f.Papers[:top]
	}
	return feed.Write(cmd.OutOrStdout(), *f, format)
}
