// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-feed/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and summarize the reference catalog",
	Long: `Catalog loads the built-in journal and keyword catalog, merges --catalog over
it when given, validates the result and prints a summary. Use --labels to list
the interest and method labels a profile can name, and --export to write the
merged catalog as YAML or TOML for editing.

Examples:
  research-feed catalog --labels
  research-feed catalog --catalog mine.toml --export merged.yaml`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().String("catalog", "", "YAML or TOML catalog merged over the built-in one")
	catalogCmd.Flags().String("export", "", "write the merged catalog to this file (.yaml, .yml or .toml)")
	catalogCmd.Flags().Bool("labels", false, "list interest and method labels")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("catalog")
	export, _ := cmd.Flags().GetString("export")
	labels, _ := cmd.Flags().GetBool("labels")

	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Scoring.CatalogPath
	}
	cat, err := loadCatalog(path)
	if err != nil {
		return err
	}
	if err := cat.Validate(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	byTier := make(map[int]int)
	for _, j := range cat.Journals {
		byTier[j.Tier]++
	}
	interests, methods := cat.Labels()

	fmt.Fprintf(w, "Journals: %d (tier 1: %d, tier 2: %d, tier 3: %d, tier 4: %d)\n",
		len(cat.Journals), byTier[1], byTier[2], byTier[3], byTier[4])
	fmt.Fprintf(w, "Adjacent fields: %s\n", strings.Join(cat.AdjacentFields, ", "))
	fmt.Fprintf(w, "Interests: %d\n", len(interests))
	fmt.Fprintf(w, "Methods: %d\n", len(methods))
	fmt.Fprintf(w, "Approach signals: %d quantitative, %d qualitative\n",
		len(cat.ApproachSignals.Quantitative), len(cat.ApproachSignals.Qualitative))

	if labels {
		fmt.Fprintln(w, "\nInterest labels:")
		for _, l := range interests {
			fmt.Fprintf(w, "  %s\n", l)
		}
		fmt.Fprintln(w, "\nMethod labels:")
		for _, l := range methods {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}

	if export != "" {
		if err := exportCatalog(cat, export); err != nil {
			return err
		}
		fmt.Fprintf(w, "Exported: %s\n", export)
	}
	return nil
}

func exportCatalog(cat *catalog.Catalog, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := cat.Write(f, filepath.Ext(path)); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
