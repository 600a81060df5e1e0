// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-feed/internal/logging"
	"github.com/pdiddy/research-feed/pkg/types"
)

func secretsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadKeyFiles(t *testing.T) {
	dir := secretsDir(t, map[string]string{
		AnthropicAPIKey: "  sk-ant-abc123  \n",
		OpenAIAPIKey:    "sk-xyz789",
		OpenAlexEmail:   "user@example.com\n",
		"blank":         "   \n\t  ",
		".gitkeep":      "",
		".hidden-key":   "secret",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		AnthropicAPIKey: "sk-ant-abc123",
		OpenAIAPIKey:    "sk-xyz789",
		OpenAlexEmail:   "user@example.com",
	}, got)
}

func TestLoadMissingOrEmptyDir(t *testing.T) {
	for _, dir := range []string{filepath.Join(t.TempDir(), "absent"), t.TempDir()} {
		got, err := Load(dir)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestLoadLogsUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root reads files regardless of permission bits")
	}
	var buf bytes.Buffer
	orig := logging.Logger()
	logging.SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { logging.SetLogger(orig) })

	dir := secretsDir(t, map[string]string{OpenAlexEmail: "me@example.org"})
	locked := filepath.Join(dir, AnthropicAPIKey)
	require.NoError(t, os.WriteFile(locked, []byte("sk-ant"), 0o000))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{OpenAlexEmail: "me@example.org"}, got)
	assert.Contains(t, buf.String(), AnthropicAPIKey)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	files := map[string]string{AnthropicAPIKey: "from-file-ant", OpenAIAPIKey: "from-file-oai"}

	tests := []struct {
		name     string
		env      string
		provider types.AIProvider
		explicit string
		want     string
	}{
		{"explicit wins", "", types.ProviderAnthropic, "flag", "flag"},
		{"empty provider is anthropic", "", "", "", "from-file-ant"},
		{"openai file", "", types.ProviderOpenAI, "", "from-file-oai"},
		{"unknown provider", "", "mystery", "", ""},
		{"env over file", "from-env", types.ProviderOpenAI, "", "from-env"},
		{"other provider env ignored", "from-env", types.ProviderAnthropic, "", "from-file-ant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OPENAI_API_KEY", tt.env)
			assert.Equal(t, tt.want, APIKey(files, tt.provider, tt.explicit))
		})
	}
}
