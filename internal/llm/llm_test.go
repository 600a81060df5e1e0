// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-feed/internal/httputil"
	"github.com/pdiddy/research-feed/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func TestAnthropicComplete(t *testing.T) {
	var got anthropicRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"[{\"index\":1,"},{"type":"tool_use"},{"type":"text","text":"\"relevance\":8}]"}]}`)
	}))
	defer ts.Close()

	c := NewAnthropicClient(types.AIConfig{APIKey: "test-key", BaseURL: ts.URL})
	out, err := c.Complete(context.Background(), "score these")
	require.NoError(t, err)

	assert.Equal(t, `[{"index":1,"relevance":8}]`, out)
	assert.Equal(t, DefaultAnthropicModel, got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "score these", got.Messages[0].Content)
}

func TestAnthropicErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantClass error
		wantFatal bool
	}{
		{"bad key", 401, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, ErrAuthentication, true},
		{"no credit", 400, `{"type":"error","error":{"type":"invalid_request_error","message":"Your credit balance is too low"}}`, ErrQuota, true},
		{"forbidden", 403, `{"type":"error","error":{"type":"permission_error","message":"no access"}}`, ErrPermission, true},
		{"unknown model", 404, `{"type":"error","error":{"type":"not_found_error","message":"model: claude-x"}}`, ErrModelUnavailable, true},
		{"rate limited", 429, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, ErrRateLimited, false},
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, nil, false},
		{"plain text", 400, `bad request`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			c := NewAnthropicClient(types.AIConfig{APIKey: "k", BaseURL: ts.URL, MaxRetries: -1})
			_, err := c.Complete(context.Background(), "p")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			if tt.wantClass != nil {
				assert.ErrorIs(t, err, tt.wantClass)
			}
			assert.Equal(t, tt.wantFatal, Fatal(err))
		})
	}
}

func TestAnthropicMissingKey(t *testing.T) {
	_, err := NewAnthropicClient(types.AIConfig{}).Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.True(t, Fatal(err))
}

func TestOpenAIComplete(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LLM_MODEL", "")

	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"[]"}}]}`)
	}))
	defer ts.Close()

	c := NewOpenAIClient(WithBaseURL(ts.URL+"/v1/"), WithAPIKey("sk-test"), WithMaxTokens(512))
	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "[]", out)
	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.Equal(t, 512, got.MaxTokens)
	assert.Zero(t, got.Temperature)
}

func TestOpenAIEnvironment(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "http://gateway.local/v1/")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("LLM_MODEL", "local-model")

	c := NewOpenAIClient()
	assert.Equal(t, "http://gateway.local/v1", c.baseURL)
	assert.Equal(t, "sk-env", c.apiKey)
	assert.Equal(t, "local-model", c.model)

	c = NewOpenAIClient(WithModel("override"))
	assert.Equal(t, "override", c.model)
}

func TestOpenAIQuotaError(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`)
	}))
	defer ts.Close()

	c := NewOpenAIClient(WithBaseURL(ts.URL), WithAPIKey("k"), WithMaxRetries(2))
	_, err := c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuota)
	assert.True(t, Fatal(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "429 is retried before giving up")
}

func TestOpenAINoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer ts.Close()

	_, err := NewOpenAIClient(WithBaseURL(ts.URL), WithAPIKey("k")).Complete(context.Background(), "p")
	assert.ErrorContains(t, err, "no choices")
}

func TestFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("upstream said 401 Unauthorized"), true},
		{errors.New("gateway returned HTTP 403"), true},
		{errors.New("proxy: status code: 401"), true},
		{errors.New("no usable scores in model reply (401 characters)"), false},
		{errors.New("dial tcp 10.0.4.13:4013: connection refused"), false},
		{errors.New("read 1403 bytes then EOF"), false},
		{errors.New("Invalid API key provided"), true},
		{errors.New("The model `gpt-9` does not exist"), true},
		{errors.New("billing hard limit reached"), true},
		{fmt.Errorf("batch 2: %w", &APIError{Provider: "openai", Status: 403}), true},
		{context.DeadlineExceeded, false},
		{errors.New("connection reset by peer"), false},
		{&APIError{Provider: "anthropic", Status: 500, Message: "internal"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fatal(tt.err), "%v", tt.err)
	}
}

type stubCompleter struct {
	calls int32
	err   error
	out   string
}

func (s *stubCompleter) Complete(context.Context, string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.out, s.err
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubCompleter{err: errors.New("503 from upstream")}
	b := NewBreaker("test-open", stub, 3)

	for range 3 {
		_, err := b.Complete(context.Background(), "p")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), atomic.LoadInt32(&stub.calls), "open breaker does not call through")
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	stub := &stubCompleter{err: context.Canceled}
	b := NewBreaker("test-cancel", stub, 1)

	for range 3 {
		_, err := b.Complete(context.Background(), "p")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerPassesThrough(t *testing.T) {
	b := NewBreaker("test-ok", &stubCompleter{out: "ok"}, 0)
	out, err := b.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestNewSelectsProvider(t *testing.T) {
	b, err := New(types.AIConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, b.next)

	b, err = New(types.AIConfig{Provider: types.ProviderOpenAI, APIKey: "k", Model: "m"})
	require.NoError(t, err)
	oc, ok := b.next.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "m", oc.model)

	_, err = New(types.AIConfig{Provider: "mystery"})
	assert.ErrorContains(t, err, "mystery")
}
