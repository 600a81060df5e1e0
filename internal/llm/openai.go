// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultOpenAIModel is used when neither options nor environment name a model.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	maxRetries int
	httpClient *http.Client
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithBaseURL sets the API base URL (without the /chat/completions suffix).
func WithBaseURL(url string) Option {
	return func(c *OpenAIClient) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(c *OpenAIClient) { c.apiKey = key }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *OpenAIClient) { c.model = model }
}

// WithMaxTokens caps the reply length. Non-positive values keep the default.
func WithMaxTokens(n int) Option {
	return func(c *OpenAIClient) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMaxRetries sets the retry count on 429/5xx.
func WithMaxRetries(n int) Option {
	return func(c *OpenAIClient) { c.maxRetries = n }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *OpenAIClient) { c.httpClient = hc }
}

// NewOpenAIClient returns a client with defaults, then LLM_BASE_URL,
// LLM_API_KEY (or OPENAI_API_KEY) and LLM_MODEL from the environment, then opts.
func NewOpenAIClient(opts ...Option) *OpenAIClient {
	c := &OpenAIClient{
		baseURL:    "https://api.openai.com/v1",
		model:      DefaultOpenAIModel,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	if url := os.Getenv("LLM_BASE_URL"); url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		c.apiKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.apiKey = key
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.model = model
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete sends prompt as a single user message at temperature 0.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
	}
	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var resp chatResponse
	if err := postJSON(ctx, c.httpClient, "openai", c.baseURL+"/chat/completions", headers, c.maxRetries, req, &resp, parseOpenAIError); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}
	return resp.Choices[0].Message.Content, nil
}

func parseOpenAIError(status int, body []byte) *APIError {
	e := &APIError{Provider: "openai", Status: status}
	var oe openAIError
	if err := json.Unmarshal(body, &oe); err == nil && oe.Error.Message != "" {
		e.Message = oe.Error.Message
		e.Type = oe.Error.Type
		if code, ok := oe.Error.Code.(string); ok && code != "" {
			e.Type = code
		}
		return e
	}
	e.Message = truncate(strings.TrimSpace(string(body)), 200)
	return e
}
