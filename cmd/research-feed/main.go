// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-feed CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/internal/metrics"
	"github.com/pdiddy/research-feed/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// runID tags every log line written by one invocation.
var runID string

// secretDefault returns value if set, otherwise the secret stored under key.
func secretDefault(key, value string) string {
	if value != "" {
		return value
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the research-feed CLI.
var rootCmd = &cobra.Command{
	Use:   "research-feed",
	Short: "Rank newly published papers against a researcher profile",
	Long: `research-feed scores academic papers against a researcher's profile and
optionally reranks the strongest candidates with a language model.

fetch pulls recent paper metadata from OpenAlex into a local cache, score
ranks papers from a file or the cache, show re-displays a saved feed, and
catalog inspects the journal and keyword reference data.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(logging.Config{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		})
		runID = uuid.NewString()
		logging.SetLogger(logging.Logger().With().Str("run", runID).Logger())

		s, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logging.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("metrics_file")
		if path == "" {
			return nil
		}
		if err := metrics.WriteTextfile(path); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logging.Debug().Str("path", path).Msg("metrics written")
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults()

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./research-feed.yaml or ~/.config/research-feed/research-feed.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("metrics-file", "", "write a Prometheus textfile snapshot here on exit")
	pf.String("secrets-dir", secrets.DefaultDir, "directory holding API key files")

	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("log.format", pf.Lookup("log-format"))
	bindFlag("metrics_file", pf.Lookup("metrics-file"))
	bindFlag("secrets_dir", pf.Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-feed")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-feed"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_FEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
