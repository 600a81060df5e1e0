//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Fetch builds the CLI and caches OpenAlex metadata for papers published
// between from and to (YYYY-MM-DD).
func Fetch(from, to string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "fetch", "--from", from, "--to", to)
}

// Feed builds the CLI and scores cached papers published since from against
// profile, reranking with the configured AI provider and saving the feed
// under feeds/.
func Feed(profile, from string) error {
	mg.Deps(Build, Init)
	out := filepath.Join("feeds", fmt.Sprintf("feed-%s.yaml", from))
	return sh.RunV(filepath.Join(binDir, binName), "score",
		"--profile", profile, "--cache", "--from", from, "--rerank", "--out", out)
}
