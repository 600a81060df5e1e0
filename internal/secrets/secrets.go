// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: anthropic-api-key, openai-api-key, openalex-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Key file names.
const (
	AnthropicAPIKey = "anthropic-api-key"
	OpenAIAPIKey    = "openai-api-key"
	OpenAlexEmail   = "openalex-email"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logging.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// providerKeys maps each AI provider to its key file and environment variable.
var providerKeys = map[types.AIProvider][2]string{
	types.ProviderAnthropic: {AnthropicAPIKey, "ANTHROPIC_API_KEY"},
	types.ProviderOpenAI:    {OpenAIAPIKey, "OPENAI_API_KEY"},
}

// APIKey returns the key for provider: explicit when set, then the
// provider's environment variable, then the secrets file. An empty provider
// means Anthropic.
func APIKey(secrets map[string]string, provider types.AIProvider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if provider == "" {
		provider = types.ProviderAnthropic
	}
	k, ok := providerKeys[provider]
	if !ok {
		return ""
	}
	if v := strings.TrimSpace(os.Getenv(k[1])); v != "" {
		return v
	}
	return secrets[k[0]]
}
