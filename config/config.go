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


// Package config loads process configuration for the ticketrank command
// from a YAML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/ticketrank/ai"
	"github.com/poiesic/ticketrank/core"
)

// Provider drivers.
const (
	DriverLangChain = "langchain"
	DriverGoOpenAI  = "go-openai"
)

// Ledger backends.
const (
	LedgerJSON   = "json"
	LedgerBadger = "badger"
)

// Environment variables consulted by Load.
const (
	EnvAPIKey       = "TICKETRANK_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvHost         = "TICKETRANK_PROVIDER_HOST"
	EnvCorpus       = "TICKETRANK_CORPUS"
	EnvDataDir      = "TICKETRANK_DATA_DIR"
	EnvLogLevel     = "TICKETRANK_LOG_LEVEL"
)

type Config struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	Storage     StorageConfig     `yaml:"storage"`
	Provider    ProviderConfig    `yaml:"provider"`
	Search      SearchConfig      `yaml:"search"`
	Compression CompressionConfig `yaml:"compression"`
	Feedback    FeedbackConfig    `yaml:"feedback"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type CorpusConfig struct {
	Path string `yaml:"path"`
}

type StorageConfig struct {
	// DataDir holds the badger database. Empty keeps everything in memory.
	DataDir    string `yaml:"data_dir"`
	Ledger     string `yaml:"ledger"` // json or badger
	LedgerPath string `yaml:"ledger_path"`
}

type ProviderConfig struct {
	Driver          string          `yaml:"driver"` // langchain or go-openai
	Host            string          `yaml:"host"`
	APIKey          string          `yaml:"api_key"`
	EmbeddingModel  string          `yaml:"embedding_model"`
	CompletionModel string          `yaml:"completion_model"`
	MaxRetries      int             `yaml:"max_retries"`
	RetrySchedule   []time.Duration `yaml:"retry_schedule"`
	RequestTimeout  time.Duration   `yaml:"request_timeout"`
}

type SearchConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	FallbackThreshold   float64 `yaml:"fallback_threshold"`
	QueryCacheSize      int     `yaml:"query_cache_size"`
	BuildBatchSize      int     `yaml:"build_batch_size"`
	Workers             int     `yaml:"workers"`
}

type CompressionConfig struct {
	ShortTextTokens int `yaml:"short_text_tokens"`
	MaxTokens       int `yaml:"max_tokens"`
	CharsPerToken   int `yaml:"chars_per_token"`
}

type FeedbackConfig struct {
	HistoryLimit int `yaml:"history_limit"`
}

type ClassifierConfig struct {
	Enabled   bool `yaml:"enabled"`
	CacheSize int  `yaml:"cache_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result. Relative paths in the file are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		cfg.resolvePaths(path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Corpus: CorpusConfig{
			Path: "knowledge_base.xlsx",
		},
		Storage: StorageConfig{
			DataDir: "data",
			Ledger:  LedgerJSON,
		},
		Provider: ProviderConfig{
			Driver:          DriverLangChain,
			Host:            aiDefaults.EmbeddingHost,
			EmbeddingModel:  aiDefaults.EmbeddingModel,
			CompletionModel: aiDefaults.CompletionModel,
			MaxRetries:      aiDefaults.MaxRetries,
			RetrySchedule:   aiDefaults.RetrySchedule,
			RequestTimeout:  aiDefaults.RequestTimeout,
		},
		Search: SearchConfig{
			TopK:                5,
			SimilarityThreshold: 0.4,
			FallbackThreshold:   0.6,
			QueryCacheSize:      100,
			BuildBatchSize:      64,
		},
		Compression: CompressionConfig{
			ShortTextTokens: 10,
			MaxTokens:       128,
			CharsPerToken:   4,
		},
		Feedback: FeedbackConfig{
			HistoryLimit: 1000,
		},
		Classifier: ClassifierConfig{
			CacheSize: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Corpus.Path == "":
		return core.NewConfigurationError("corpus.path", "is required")
	case c.Storage.Ledger != LedgerJSON && c.Storage.Ledger != LedgerBadger:
		return core.NewConfigurationError("storage.ledger", fmt.Sprintf("must be %q or %q", LedgerJSON, LedgerBadger))
	case c.Provider.Driver != DriverLangChain && c.Provider.Driver != DriverGoOpenAI:
		return core.NewConfigurationError("provider.driver", fmt.Sprintf("must be %q or %q", DriverLangChain, DriverGoOpenAI))
	case c.Search.TopK < 1:
		return core.NewConfigurationError("search.top_k", "must be at least 1")
	case c.Search.SimilarityThreshold < -1 || c.Search.SimilarityThreshold > 1:
		return core.NewConfigurationError("search.similarity_threshold", "must be within [-1, 1]")
	case c.Search.FallbackThreshold < -1 || c.Search.FallbackThreshold > 1:
		return core.NewConfigurationError("search.fallback_threshold", "must be within [-1, 1]")
	case c.Search.QueryCacheSize < 1:
		return core.NewConfigurationError("search.query_cache_size", "must be at least 1")
	case c.Search.BuildBatchSize < 1:
		return core.NewConfigurationError("search.build_batch_size", "must be at least 1")
	case c.Search.Workers < 0:
		return core.NewConfigurationError("search.workers", "must not be negative")
	case c.Compression.ShortTextTokens < 0:
		return core.NewConfigurationError("compression.short_text_tokens", "must not be negative")
	case c.Compression.MaxTokens < 1:
		return core.NewConfigurationError("compression.max_tokens", "must be at least 1")
	case c.Compression.CharsPerToken < 1:
		return core.NewConfigurationError("compression.chars_per_token", "must be at least 1")
	case c.Feedback.HistoryLimit < 1:
		return core.NewConfigurationError("feedback.history_limit", "must be at least 1")
	case c.Classifier.CacheSize < 1:
		return core.NewConfigurationError("classifier.cache_size", "must be at least 1")
	}
	return nil
}

// AIConfig converts the provider section for the ai package.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Provider.Host),
		ai.WithAPIKey(c.Provider.APIKey),
		ai.WithEmbeddingModel(c.Provider.EmbeddingModel),
		ai.WithCompletionModel(c.Provider.CompletionModel),
		ai.WithMaxRetries(c.Provider.MaxRetries),
		ai.WithRetrySchedule(c.Provider.RetrySchedule...),
		ai.WithRequestTimeout(c.Provider.RequestTimeout),
	)
}

// LedgerPath returns where the JSON ledger lives.
func (c *Config) LedgerPath() string {
	if c.Storage.LedgerPath != "" {
		return c.Storage.LedgerPath
	}
	if c.Storage.DataDir == "" {
		return "feedback_data.json"
	}
	return filepath.Join(c.Storage.DataDir, "feedback_data.json")
}

func (c *Config) resolvePaths(configPath string) {
	c.Corpus.Path = ResolveRelativePath(configPath, c.Corpus.Path)
	c.Storage.DataDir = ResolveRelativePath(configPath, c.Storage.DataDir)
	c.Storage.LedgerPath = ResolveRelativePath(configPath, c.Storage.LedgerPath)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Provider.APIKey = v
	} else if v := os.Getenv(EnvOpenAIAPIKey); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}

	if v := os.Getenv(EnvHost); v != "" {
		cfg.Provider.Host = v
	}
	if v := os.Getenv(EnvCorpus); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// ResolveRelativePath resolves targetPath relative to the config file's
// directory. Empty and absolute paths are returned unchanged.
func ResolveRelativePath(configPath, targetPath string) string {
	if targetPath == "" || filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
