// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-feed/internal/feed"
	"github.com/pdiddy/research-feed/internal/fetch"
	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/store"
	"github.com/pdiddy/research-feed/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch recent paper metadata from OpenAlex",
	Long: `Fetch downloads metadata for articles published between --from and --to in
the catalog journals (or only those named with --journal) and saves it to the
local cache used by "score --cache". With --out the papers are also written
to a YAML or JSON file that "score --papers" accepts.

With --arxiv, preprints submitted to those arXiv categories in the same date
range are fetched as well. Use --arxiv-only to skip the journal fetch.

Set fetch.email in the config or put an address in .secrets/openalex-email to
use the OpenAlex polite pool.

Examples:
  research-feed fetch --from 2026-09-01 --to 2026-09-30
  research-feed fetch --from 2026-09-01 --to 2026-09-07 --journal "American Economic Review" --out week.yaml
  research-feed fetch --from 2026-09-01 --to 2026-09-07 --arxiv econ.GN --arxiv econ.EM`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("from", "", "earliest publication date (YYYY-MM-DD)")
	f.String("to", "", "latest publication date (YYYY-MM-DD)")
	f.StringSlice("journal", nil, "journal name from the catalog (repeatable)")
	f.String("out", "", "also write the papers to this file (.yaml or .json)")
	f.StringSlice("arxiv", nil, "also fetch preprints from this arXiv category (repeatable)")
	f.Bool("arxiv-only", false, "fetch only the --arxiv preprints")
	f.Bool("no-cache", false, "do not write to the local cache")
	f.String("catalog", "", "YAML or TOML catalog merged over the built-in one")
	f.String("email", "", "contact address for the OpenAlex polite pool")

	bindFlag("fetch.email", f.Lookup("email"))

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	journals, _ := cmd.Flags().GetStringSlice("journal")
	out, _ := cmd.Flags().GetString("out")
	categories, _ := cmd.Flags().GetStringSlice("arxiv")
	arxivOnly, _ := cmd.Flags().GetBool("arxiv-only")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	catalogPath, _ := cmd.Flags().GetString("catalog")

	if arxivOnly && len(categories) == 0 {
		return fmt.Errorf("--arxiv-only needs at least one --arxiv category")
	}
	from, to, err := parseDateRange(fromStr, toStr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if catalogPath == "" {
		catalogPath = cfg.Scoring.CatalogPath
	}
	cat, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}
	if cfg.Fetch.Email == "" && !arxivOnly {
		logging.Warn().Msg("no OpenAlex contact email set; requests use the common pool")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	q := fetch.Query{From: from, To: to, Journals: journals, Categories: categories}
	var papers []types.Paper
	if !arxivOnly {
		papers, err = fetch.NewOpenAlexFetcher(cfg.Fetch, cat).Fetch(ctx, q)
		if err != nil {
			return err
		}
	}
	if len(categories) > 0 {
		preprints, err := fetch.NewArxivFetcher(cfg.Fetch, cat).Fetch(ctx, q)
		if err != nil {
			return err
		}
		papers = append(papers, preprints...)
	}
	if papers == nil {
		papers = []types.Paper{}
	}

	if !noCache {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if _, err := st.SavePapers(ctx, papers); err != nil {
			return err
		}
		total, err := st.Count(ctx)
		if err != nil {
			return err
		}
		logging.Info().Int("cached", total).Str("path", cfg.Store.Path).Msg("cache updated")
	}

	if out != "" {
		pf := feed.PaperFile{
			FetchedAt: time.Now().UTC(),
			From:      fromStr,
			To:        toStr,
			Papers:    papers,
		}
		if err := feed.WritePapers(out, pf); err != nil {
			return fmt.Errorf("saving papers: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d papers published %s to %s\n", len(papers), fromStr, toStr)
	if out != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  Saved: %s\n", out)
	}
	return nil
}
