// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-feed/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ScoringConfig holds settings for the taxonomy scoring pass.
type ScoringConfig struct {
	// Workers is the number of goroutines scoring papers. Zero uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// StrongMatch is the score at or above which a paper counts as a strong
	// match in the summary line (default 7.0).
	StrongMatch float64 `json:"strong_match" yaml:"strong_match" mapstructure:"strong_match"`

	// CatalogPath is an optional YAML or TOML file replacing the embedded catalog.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty" mapstructure:"catalog_path"`
}

// AIProvider selects the LLM API flavor.
type AIProvider string

const (
	ProviderAnthropic AIProvider = "anthropic"
	ProviderOpenAI    AIProvider = "openai"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider is "anthropic" (Messages API) or "openai" (chat completions).
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts on HTTP 429/5xx (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MaxTokens caps the response length (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker (default 5).
	BreakerFailures int `json:"breaker_failures" yaml:"breaker_failures" mapstructure:"breaker_failures"`
}

// RerankConfig holds settings for the AI batch reranker. Batch size and
// top-N trade cost and latency against coverage.
type RerankConfig struct {
	// TopN is the number of highest-scoring papers eligible for AI scoring (default 40).
	TopN int `json:"top_n" yaml:"top_n" mapstructure:"top_n"`

	// BatchSize is the number of papers per LLM request (default 8).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// Timeout bounds each LLM request (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Concurrency is the number of batches in flight (default 1, sequential).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// RequestsPerSecond paces batch dispatch. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// AbstractChars truncates abstracts in the prompt (default 400).
	AbstractChars int `json:"abstract_chars" yaml:"abstract_chars" mapstructure:"abstract_chars"`

	// TaxonomyBase is the taxonomy weight at exploration level 0 (default 0.55).
	TaxonomyBase float64 `json:"taxonomy_base" yaml:"taxonomy_base" mapstructure:"taxonomy_base"`

	// ExplorationShift is how much taxonomy weight moves to the AI score as
	// exploration goes from 0 to 1 (default 0.2). Nil takes the default; an
	// explicit 0 pins the taxonomy weight at TaxonomyBase.
	ExplorationShift *float64 `json:"exploration_shift" yaml:"exploration_shift" mapstructure:"exploration_shift"`

	// DiscoveryShare is the share of the AI score taken from the discovery
	// rating at exploration level 1 (default 0.4). Nil takes the default; an
	// explicit 0 ignores the discovery rating.
	DiscoveryShare *float64 `json:"discovery_share" yaml:"discovery_share" mapstructure:"discovery_share"`
}

// FetchConfig holds settings for the OpenAlex metadata source.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Email is sent as the mailto parameter for OpenAlex polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// PerPage is the OpenAlex page size (default 200, the API maximum).
	PerPage int `json:"per_page" yaml:"per_page" mapstructure:"per_page"`

	// MaxPages caps cursor pagination (default 10).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// RequestsPerSecond paces page requests (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// MaxRetries is the number of retries on HTTP 429/5xx (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreConfig holds settings for the local paper metadata cache.
type StoreConfig struct {
	// Path is the SQLite database file (default data/papers.db).
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Scoring ScoringConfig `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Rerank  RerankConfig  `json:"rerank" yaml:"rerank" mapstructure:"rerank"`
	AI      AIConfig      `json:"ai" yaml:"ai" mapstructure:"ai"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
