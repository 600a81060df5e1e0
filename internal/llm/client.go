// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm calls large-language-model completion APIs. Two wire formats
// are supported: the Anthropic Messages API and OpenAI-compatible chat
// completions. Both clients satisfy Completer and can be wrapped in a Breaker.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/pdiddy/research-feed/internal/httputil"
	"github.com/pdiddy/research-feed/internal/metrics"
	"github.com/pdiddy/research-feed/pkg/types"
)

// Completer sends a prompt and returns the model's text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	defaultMaxTokens   = 2048
	defaultHTTPTimeout = 120 * time.Second
)

// New builds the client selected by cfg.Provider and wraps it in a Breaker.
// An empty provider selects Anthropic.
func New(cfg types.AIConfig) (*Breaker, error) {
	var c Completer
	switch cfg.Provider {
	case "", types.ProviderAnthropic:
		c = NewAnthropicClient(cfg)
	case types.ProviderOpenAI:
		opts := []Option{WithMaxTokens(cfg.MaxTokens), WithMaxRetries(cfg.MaxRetries)}
		if cfg.APIKey != "" {
			opts = append(opts, WithAPIKey(cfg.APIKey))
		}
		if cfg.Model != "" {
			opts = append(opts, WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		c = NewOpenAIClient(opts...)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	return NewBreaker(string(providerName(cfg.Provider)), c, cfg.BreakerFailures), nil
}

func providerName(p types.AIProvider) types.AIProvider {
	if p == "" {
		return types.ProviderAnthropic
	}
	return p
}

// postJSON sends payload to url with retry and decodes a 200 response into
// out. Non-200 responses are turned into an *APIError by parseErr.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string,
	maxRetries int, payload, out any, parseErr func(status int, body []byte) *APIError) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, maxRetries)
	if err != nil {
		metrics.LLMRequests.WithLabelValues(provider, "error").Inc()
		return fmt.Errorf("calling %s API: %w", provider, err)
	}
	defer resp.Body.Close()
	metrics.LLMRequests.WithLabelValues(provider, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return parseErr(resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", provider, err)
	}
	return nil
}

// truncate shortens s to n bytes for error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
