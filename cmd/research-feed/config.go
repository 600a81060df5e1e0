// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-feed/internal/catalog"
	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/relevance"
	"github.com/pdiddy/research-feed/internal/rerank"
	"github.com/pdiddy/research-feed/internal/secrets"
	"github.com/pdiddy/research-feed/internal/store"
	"github.com/pdiddy/research-feed/pkg/types"
)

const dateLayout = "2006-01-02"

// setDefaults registers every tunable so config files, RESEARCH_FEED_*
// environment variables and bound flags all resolve through viper.
func setDefaults() {
	viper.SetDefault("scoring.workers", 0)
	viper.SetDefault("scoring.strong_match", relevance.DefaultStrongMatch)
	viper.SetDefault("scoring.catalog_path", "")

	rr := rerank.DefaultConfig()
	viper.SetDefault("rerank.top_n", rr.TopN)
	viper.SetDefault("rerank.batch_size", rr.BatchSize)
	viper.SetDefault("rerank.timeout", rr.Timeout)
	viper.SetDefault("rerank.concurrency", rr.Concurrency)
	viper.SetDefault("rerank.requests_per_second", rr.RequestsPerSecond)
	viper.SetDefault("rerank.abstract_chars", rr.AbstractChars)
	viper.SetDefault("rerank.taxonomy_base", rr.TaxonomyBase)
	viper.SetDefault("rerank.exploration_shift", *rr.ExplorationShift)
	viper.SetDefault("rerank.discovery_share", *rr.DiscoveryShare)

	viper.SetDefault("ai.provider", string(types.ProviderAnthropic))
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.api_key", "")
	viper.SetDefault("ai.base_url", "")
	viper.SetDefault("ai.max_retries", 2)
	viper.SetDefault("ai.max_tokens", 2048)
	viper.SetDefault("ai.breaker_failures", 5)

	viper.SetDefault("fetch.timeout", 60*time.Second)
	viper.SetDefault("fetch.user_agent", "research-feed/"+version)
	viper.SetDefault("fetch.email", "")
	viper.SetDefault("fetch.per_page", 200)
	viper.SetDefault("fetch.max_pages", 10)
	viper.SetDefault("fetch.requests_per_second", 5.0)
	viper.SetDefault("fetch.max_retries", 3)

	viper.SetDefault("store.path", store.DefaultPath)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("metrics_file", "")
	viper.SetDefault("secrets_dir", secrets.DefaultDir)
}

// bindFlag ties a flag to a config key. A flag that is set on the command
// line wins over config files and the environment.
func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

// loadConfig resolves the full pipeline configuration.
func loadConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.AI.APIKey = secrets.APIKey(loadedSecrets, cfg.AI.Provider, cfg.AI.APIKey)
	cfg.Fetch.Email = secretDefault(secrets.OpenAlexEmail, cfg.Fetch.Email)
	return cfg, nil
}

// loadCatalog returns the embedded catalog, or path merged over it.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("path", path).Int("journals", len(c.Journals)).Msg("catalog loaded")
	return c, nil
}

// parseDateRange reads YYYY-MM-DD values. Empty strings give zero times.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	var f, t time.Time
	var err error
	if from != "" {
		if f, err = time.Parse(dateLayout, from); err != nil {
			return f, t, fmt.Errorf("invalid --from date %q (want YYYY-MM-DD)", from)
		}
	}
	if to != "" {
		if t, err = time.Parse(dateLayout, to); err != nil {
			return f, t, fmt.Errorf("invalid --to date %q (want YYYY-MM-DD)", to)
		}
	}
	return f, t, nil
}
