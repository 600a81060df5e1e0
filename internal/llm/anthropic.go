// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pdiddy/research-feed/pkg/types"
)

const (
	// DefaultAnthropicModel is used when the configuration names no model.
	DefaultAnthropicModel = "claude-sonnet-4-5"

	anthropicVersion = "2023-06-01"
)

// anthropicAPIURL is the Messages API endpoint. Package-level var for test substitution.
var anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	APIKey     string
	Model      string
	MaxTokens  int
	MaxRetries int

	// URL overrides the Messages endpoint.
	URL    string
	Client *http.Client
}

// NewAnthropicClient returns a client configured from cfg.
func NewAnthropicClient(cfg types.AIConfig) *AnthropicClient {
	c := &AnthropicClient{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		MaxTokens:  cfg.MaxTokens,
		MaxRetries: cfg.MaxRetries,
		URL:        cfg.BaseURL,
		Client:     &http.Client{Timeout: defaultHTTPTimeout},
	}
	if c.Model == "" {
		c.Model = DefaultAnthropicModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	return c
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the text blocks
// of the reply joined together.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", &APIError{Provider: "anthropic", Status: http.StatusUnauthorized, Type: "authentication_error", Message: "no API key configured"}
	}
	url := c.URL
	if url == "" {
		url = anthropicAPIURL
	}
	req := anthropicRequest{
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         c.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, c.Client, "anthropic", url, headers, c.MaxRetries, req, &resp, parseAnthropicError); err != nil {
		return "", err
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text content in anthropic response")
	}
	return strings.Join(parts, ""), nil
}

func parseAnthropicError(status int, body []byte) *APIError {
	e := &APIError{Provider: "anthropic", Status: status}
	var ae anthropicError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		e.Type = ae.Error.Type
		e.Message = ae.Error.Message
		return e
	}
	e.Message = truncate(strings.TrimSpace(string(body)), 200)
	return e
}
