// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRetrySchedule is the wait before each retry of a rate-limited call.
// Retries past the end of the schedule reuse its last entry.
var DefaultRetrySchedule = []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second}

// RetryEvent describes a pending retry of a rate-limited call.
type RetryEvent struct {
	Op         string
	Attempt    int
	MaxRetries int
	Wait       time.Duration
}

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://api.openai.com/v1"
	EmbeddingHost string

	// CompletionHost is the base URL for the chat completion service API.
	CompletionHost string

	// APIKey authenticates both services. Local OpenAI-compatible servers
	// accept any non-empty value such as "none".
	APIKey string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "bge-m3"
	EmbeddingModel string

	// CompletionModel is the model identifier used for chat completion.
	// Example: "gpt-4o-mini", "qwen2.5:3b"
	CompletionModel string

	// MaxRetries is how many times a rate-limited call is retried.
	// Default: 2 (three attempts in total)
	MaxRetries int

	// RetrySchedule is the wait before retry i. Default: 10s, 20s, 30s.
	RetrySchedule []time.Duration

	// RequestTimeout bounds a single provider call. Zero disables the bound.
	RequestTimeout time.Duration

	// OnRetry, if set, is called before each wait.
	OnRetry func(RetryEvent)
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.CompletionHost = host
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithMaxRetries sets how many times a rate-limited call is retried.
func WithMaxRetries(n int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithRetrySchedule sets the waits between rate-limited attempts.
func WithRetrySchedule(schedule ...time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetrySchedule = schedule
	}
}

// WithRequestTimeout bounds each provider call.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithRetryNotifier registers a callback invoked before each retry wait.
func WithRetryNotifier(fn func(RetryEvent)) ConfigOption {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// DefaultConfig returns a Config targeting the OpenAI API.
// The API key must still be supplied.
func DefaultConfig() *Config {
	defaultHost := "https://api.openai.com/v1"
	return &Config{
		EmbeddingHost:   defaultHost,
		CompletionHost:  defaultHost,
		EmbeddingModel:  "text-embedding-3-small",
		CompletionModel: "gpt-4o-mini",
		MaxRetries:      2,
		RetrySchedule:   append([]time.Duration(nil), DefaultRetrySchedule...),
		RequestTimeout:  60 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithAPIKey("none"),
//	    WithEmbeddingModel("bge-m3"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required by most
// OpenAI-compatible APIs.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.CompletionHost = normalizeHost(c.CompletionHost)
	if c.CompletionHost == "" {
		c.CompletionHost = c.EmbeddingHost
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch {
	case c.EmbeddingHost == "":
		return fmt.Errorf("%w: EmbeddingHost is required", ErrInvalidConfig)
	case c.APIKey == "":
		return fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	case c.EmbeddingModel == "":
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	case c.CompletionModel == "":
		return fmt.Errorf("%w: CompletionModel is required", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: MaxRetries must not be negative", ErrInvalidConfig)
	case c.MaxRetries > 0 && len(c.RetrySchedule) == 0:
		return fmt.Errorf("%w: RetrySchedule is required when MaxRetries > 0", ErrInvalidConfig)
	}
	for i, d := range c.RetrySchedule {
		if d < 0 {
			return fmt.Errorf("%w: RetrySchedule[%d] is negative", ErrInvalidConfig, i)
		}
	}
	return nil
}
