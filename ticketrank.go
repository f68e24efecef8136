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


package ticketrank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/ticketrank/ai"
	"github.com/poiesic/ticketrank/ai/goopenai"
	"github.com/poiesic/ticketrank/ai/openai"
	"github.com/poiesic/ticketrank/canon"
	"github.com/poiesic/ticketrank/classify"
	"github.com/poiesic/ticketrank/compress"
	"github.com/poiesic/ticketrank/config"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/feedback"
	"github.com/poiesic/ticketrank/pipeline"
	"github.com/poiesic/ticketrank/search"
	"github.com/poiesic/ticketrank/storage"
	"github.com/poiesic/ticketrank/storage/badger"
	"github.com/poiesic/ticketrank/storage/jsonfile"
)

// LedgerFileName is the JSON ledger's name inside the data directory.
const LedgerFileName = "feedback_data.json"

// Engine owns the storage, provider and services that answer support
// requests.
type Engine struct {
	backend    *badger.Backend
	provider   ai.AIProvider
	index      *search.Index
	ledger     *feedback.Ledger
	classifier *classify.Classifier
	pipeline   *pipeline.Pipeline
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig     *ai.Config
	driver       string
	provider     ai.AIProvider
	corpusPath   string
	articles     []*core.Article
	ledgerPath   string
	badgerLedger bool
	rules        []canon.Rule
	searchOpts   []search.Option
	compressOpts []compress.Option
	feedbackOpts []feedback.Option
	classifier   bool
	classifyOpts []classify.Option
	logger       *slog.Logger
}

// WithAIConfig sets the provider configuration.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithDriver selects the provider client, config.DriverLangChain (default)
// or config.DriverGoOpenAI.
func WithDriver(driver string) EngineOption {
	return func(o *engineOptions) {
		o.driver = driver
	}
}

// WithProvider uses an existing provider instead of building one.
// The Engine takes ownership and closes it.
func WithProvider(p ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = p
	}
}

// WithCorpusPath loads the corpus from a .csv, .xlsx, .json or .yaml file.
func WithCorpusPath(path string) EngineOption {
	return func(o *engineOptions) {
		o.corpusPath = path
	}
}

// WithArticles uses an in-memory corpus. It takes precedence over
// WithCorpusPath.
func WithArticles(articles []*core.Article) EngineOption {
	return func(o *engineOptions) {
		o.articles = articles
	}
}

// WithLedgerPath stores the feedback ledger as JSON at path.
func WithLedgerPath(path string) EngineOption {
	return func(o *engineOptions) {
		o.ledgerPath = path
	}
}

// WithBadgerLedger stores the feedback ledger in the badger database.
func WithBadgerLedger() EngineOption {
	return func(o *engineOptions) {
		o.badgerLedger = true
	}
}

// WithRules replaces the default canonicalization rules.
func WithRules(rules []canon.Rule) EngineOption {
	return func(o *engineOptions) {
		o.rules = rules
	}
}

// WithSearchOptions passes options to the search index.
func WithSearchOptions(opts ...search.Option) EngineOption {
	return func(o *engineOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// WithCompressOptions passes options to the query compressor.
func WithCompressOptions(opts ...compress.Option) EngineOption {
	return func(o *engineOptions) {
		o.compressOpts = append(o.compressOpts, opts...)
	}
}

// WithFeedbackOptions passes options to the feedback ledger.
func WithFeedbackOptions(opts ...feedback.Option) EngineOption {
	return func(o *engineOptions) {
		o.feedbackOpts = append(o.feedbackOpts, opts...)
	}
}

// WithClassifier enables LLM classification of requests without a category.
func WithClassifier(opts ...classify.Option) EngineOption {
	return func(o *engineOptions) {
		o.classifier = true
		o.classifyOpts = append(o.classifyOpts, opts...)
	}
}

// WithLogger sets the logger every component derives its logger from.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// OptionsFromConfig translates process configuration into engine options.
// progress, if non-nil, receives matrix build progress.
func OptionsFromConfig(cfg *config.Config, progress io.Writer) []EngineOption {
	opts := []EngineOption{
		WithAIConfig(cfg.AIConfig()),
		WithDriver(cfg.Provider.Driver),
		WithCorpusPath(cfg.Corpus.Path),
		WithSearchOptions(
			search.WithTopK(cfg.Search.TopK),
			search.WithSimilarityThreshold(cfg.Search.SimilarityThreshold),
			search.WithFallbackThreshold(cfg.Search.FallbackThreshold),
			search.WithQueryCacheSize(cfg.Search.QueryCacheSize),
			search.WithBuildBatchSize(cfg.Search.BuildBatchSize),
		),
		WithCompressOptions(
			compress.WithShortTextTokens(cfg.Compression.ShortTextTokens),
			compress.WithMaxTokens(cfg.Compression.MaxTokens),
			compress.WithCharsPerToken(cfg.Compression.CharsPerToken),
		),
		WithFeedbackOptions(feedback.WithHistoryLimit(cfg.Feedback.HistoryLimit)),
	}
	if cfg.Search.Workers > 0 {
		opts = append(opts, WithSearchOptions(search.WithPoolSize(cfg.Search.Workers)))
	}
	if progress != nil {
		opts = append(opts, WithSearchOptions(search.WithProgress(progress)))
	}
	if cfg.Storage.Ledger == config.LedgerBadger {
		opts = append(opts, WithBadgerLedger())
	} else {
		opts = append(opts, WithLedgerPath(cfg.LedgerPath()))
	}
	if cfg.Classifier.Enabled {
		opts = append(opts, WithClassifier(classify.WithCacheSize(cfg.Classifier.CacheSize)))
	}
	return opts
}

// NewEngine opens the badger database in dataDir (in memory when dataDir is
// empty), loads the corpus and the feedback ledger, and wires the pipeline.
// The index is not searchable until Prepare succeeds.
//
// A corpus that cannot be read is logged and leaves the index empty;
// searches then return no results.
func NewEngine(ctx context.Context, dataDir string, opts ...EngineOption) (*Engine, error) {
	o := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		driver:   config.DriverLangChain,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger

	backend, err := badger.OpenBackend(dataDir, dataDir == "")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	provider := o.provider
	if provider == nil {
		provider, err = newProvider(o.driver, o.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	e := &Engine{
		backend:  backend,
		provider: provider,
		logger:   logger.With("component", "engine"),
	}
	if err := e.wire(ctx, dataDir, o); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func newProvider(driver string, cfg *ai.Config) (ai.AIProvider, error) {
	switch driver {
	case config.DriverLangChain, "":
		return openai.NewProvider(cfg)
	case config.DriverGoOpenAI:
		return goopenai.NewProvider(cfg)
	default:
		return nil, core.NewConfigurationError("provider driver", fmt.Sprintf("unknown driver %q", driver))
	}
}

func (e *Engine) wire(ctx context.Context, dataDir string, o *engineOptions) error {
	logger := o.logger

	rules := o.rules
	if rules == nil {
		rules = canon.DefaultRules()
	}
	canonicalizer, err := canon.New(rules, canon.WithLogger(logger.With("component", "canon")))
	if err != nil {
		return err
	}

	compressOpts := append([]compress.Option{compress.WithLogger(logger.With("component", "compress"))}, o.compressOpts...)
	compressor, err := compress.New(compressOpts...)
	if err != nil {
		return err
	}

	searchOpts := append([]search.Option{
		search.WithLogger(logger.With("component", "search")),
		search.WithMatrixStore(badger.NewMatrixStore(e.backend)),
		search.WithModel(o.aiConfig.EmbeddingModel),
	}, o.searchOpts...)
	e.index, err = search.NewIndex(e.provider.Embedder(), searchOpts...)
	if err != nil {
		return err
	}

	switch {
	case o.articles != nil:
		if err := e.index.LoadCorpus(o.articles); err != nil {
			return err
		}
	case o.corpusPath != "":
		if err := e.index.OpenCorpus(o.corpusPath); err != nil {
			var loadErr *core.DataLoadError
			if !errors.As(err, &loadErr) {
				return err
			}
		}
	default:
		e.logger.Warn("no corpus configured, index is empty")
	}

	feedbackOpts := append([]feedback.Option{
		feedback.WithLogger(logger.With("component", "feedback")),
		feedback.WithStore(e.ledgerStore(dataDir, o)),
	}, o.feedbackOpts...)
	e.ledger, err = feedback.NewLedger(feedbackOpts...)
	if err != nil {
		return err
	}
	if err := e.ledger.Load(ctx); err != nil {
		return err
	}

	pipelineOpts := []pipeline.Option{pipeline.WithLogger(logger.With("component", "pipeline"))}
	if o.classifier {
		classifyOpts := append([]classify.Option{classify.WithLogger(logger.With("component", "classifier"))}, o.classifyOpts...)
		e.classifier, err = classify.New(e.provider.Completer(), e.index.Articles(), classifyOpts...)
		if err != nil {
			return err
		}
		pipelineOpts = append(pipelineOpts, pipeline.WithClassifier(e.classifier))
	}

	e.pipeline, err = pipeline.New(canonicalizer, compressor, e.index, e.ledger, pipelineOpts...)
	return err
}

// ledgerStore picks the JSON file ledger unless badger was requested or
// there is no directory to put the file in.
func (e *Engine) ledgerStore(dataDir string, o *engineOptions) storage.LedgerStore {
	path := o.ledgerPath
	if path == "" && dataDir != "" {
		path = filepath.Join(dataDir, LedgerFileName)
	}
	if o.badgerLedger || path == "" {
		return badger.NewLedgerStore(e.backend)
	}
	return jsonfile.NewLedgerStore(path)
}

// Prepare makes the index searchable, reusing the persisted matrix when it
// still matches the corpus.
func (e *Engine) Prepare(ctx context.Context) error {
	return e.index.Prepare(ctx)
}

// Process answers a single request.
func (e *Engine) Process(ctx context.Context, req pipeline.Request) (*pipeline.Response, error) {
	return e.pipeline.Process(ctx, req)
}

func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

func (e *Engine) Index() *search.Index {
	return e.index
}

func (e *Engine) Ledger() *feedback.Ledger {
	return e.ledger
}

func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

// Classifier returns the classifier, or nil when classification is disabled.
func (e *Engine) Classifier() *classify.Classifier {
	return e.classifier
}

// Close releases the provider and the database.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
