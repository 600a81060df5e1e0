// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-feed/internal/catalog"
	"github.com/pdiddy/research-feed/internal/feed"
	"github.com/pdiddy/research-feed/internal/llm"
	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/relevance"
	"github.com/pdiddy/research-feed/internal/rerank"
	"github.com/pdiddy/research-feed/internal/store"
	"github.com/pdiddy/research-feed/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score papers against a researcher profile",
	Long: `Score ranks papers against the profile in --profile. Papers come from a
YAML or JSON file (--papers) or from the local cache filled by fetch (--cache,
optionally narrowed by --from, --to and --journal).

With --rerank the top candidates are also rated by a language model and the
ratings are blended into the taxonomy scores. When the model is unavailable
the taxonomy ranking is shown with a note explaining why.

Examples:
  research-feed score --profile me.yaml --papers papers.yaml
  research-feed score --profile me.yaml --cache --from 2026-09-01 --rerank --top-n 20
  research-feed score --profile me.yaml --papers papers.yaml --format json --out feed.json`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("profile", "", "researcher profile file (.yaml or .json)")
	f.String("papers", "", "paper list file (.yaml or .json)")
	f.Bool("cache", false, "read papers from the local cache instead of --papers")
	f.String("from", "", "earliest publication date for --cache (YYYY-MM-DD)")
	f.String("to", "", "latest publication date for --cache (YYYY-MM-DD)")
	f.StringSlice("journal", nil, "restrict --cache to these journals (repeatable)")
	f.String("catalog", "", "YAML or TOML catalog merged over the built-in one")
	f.Bool("rerank", false, "rerank the top candidates with a language model")
	f.String("provider", "", "AI provider: anthropic or openai")
	f.String("model", "", "AI model identifier")
	f.Int("top-n", 0, "number of top papers sent for AI scoring")
	f.Int("batch-size", 0, "papers per AI request")
	f.Int("concurrency", 0, "AI requests in flight")
	f.Float64("exploration", 0, "override the profile's exploration level (0-1)")
	f.String("format", feed.FormatTable, "output format: table, json or yaml")
	f.String("out", "", "also save the feed to this file (.yaml or .json)")

	bindFlag("scoring.catalog_path", f.Lookup("catalog"))
	bindFlag("ai.provider", f.Lookup("provider"))
	bindFlag("ai.model", f.Lookup("model"))
	bindFlag("rerank.top_n", f.Lookup("top-n"))
	bindFlag("rerank.batch_size", f.Lookup("batch-size"))
	bindFlag("rerank.concurrency", f.Lookup("concurrency"))

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	profilePath, _ := cmd.Flags().GetString("profile")
	papersPath, _ := cmd.Flags().GetString("papers")
	useCache, _ := cmd.Flags().GetBool("cache")
	doRerank, _ := cmd.Flags().GetBool("rerank")
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	if profilePath == "" {
		return fmt.Errorf("--profile is required")
	}
	if (papersPath == "") == !useCache {
		return fmt.Errorf("give exactly one of --papers or --cache")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	profile, err := feed.LoadProfile(profilePath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("exploration") {
		x, _ := cmd.Flags().GetFloat64("exploration")
		profile = profile.WithExploration(x)
	}
	cat, err := loadCatalog(cfg.Scoring.CatalogPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var papers []types.Paper
	if useCache {
		papers, err = cachedPapers(ctx, cmd, cfg.Store, cat)
	} else {
		papers, err = feed.LoadPapers(papersPath)
	}
	if err != nil {
		return err
	}

	scorer := relevance.NewScorer(cat, cfg.Scoring)
	scored, err := scorer.Score(profile, papers)
	if err != nil {
		return err
	}
	logging.Info().Int("papers", len(scored.Papers)).Msg("scoring complete")

	var reranked *types.RerankResult
	if doRerank {
		client, err := llm.New(cfg.AI)
		if err != nil {
			return err
		}
		res := rerank.New(client, cfg.Rerank).Rerank(ctx, scored.Papers, profile)
		reranked = &res
	}

	result := feed.New(profile, scored, reranked, time.Now())
	if out != "" {
		if err := feed.WriteFeed(out, result); err != nil {
			return fmt.Errorf("saving feed: %w", err)
		}
		logging.Info().Str("path", out).Msg("feed saved")
	}
	return feed.Write(cmd.OutOrStdout(), result, format)
}

// cachedPapers reads papers from the local cache using the command's date
// and journal flags. Journal names are matched in their catalog spelling.
func cachedPapers(ctx context.Context, cmd *cobra.Command, cfg types.StoreConfig, cat *catalog.Catalog) ([]types.Paper, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	journals, _ := cmd.Flags().GetStringSlice("journal")

	from, to, err := parseDateRange(fromStr, toStr)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(journals))
	for _, j := range journals {
		if info, ok := cat.Journal(j); ok {
			j = info.Name
		}
		names = append(names, j)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	papers, err := st.Papers(ctx, store.Query{From: from, To: to, Journals: names})
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No cached papers match; run %q first.\n", "research-feed fetch")
	}
	logging.Debug().Int("papers", len(papers)).Str("path", viper.GetString("store.path")).Msg("loaded cached papers")
	return papers, nil
}
