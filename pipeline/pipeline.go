package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/ticketrank/canon"
	"github.com/poiesic/ticketrank/classify"
	"github.com/poiesic/ticketrank/compress"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/feedback"
	"github.com/poiesic/ticketrank/search"
)

// Classifier picks a category for a request.
type Classifier interface {
	Classify(ctx context.Context, text string) (classify.Result, error)
}

var _ Classifier = (*classify.Classifier)(nil)

// Pipeline connects the request-processing stages. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	canonicalizer *canon.Canonicalizer
	compressor    *compress.Compressor
	index         *search.Index
	ledger        *feedback.Ledger
	classifier    Classifier
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithClassifier lets Process pick a category for requests that have none.
func WithClassifier(c Classifier) Option {
	return func(p *Pipeline) error {
		p.classifier = c
		return nil
	}
}

// New creates a Pipeline over the given stages.
func New(
	canonicalizer *canon.Canonicalizer,
	compressor *compress.Compressor,
	index *search.Index,
	ledger *feedback.Ledger,
	opts ...Option,
) (*Pipeline, error) {
	if canonicalizer == nil {
		return nil, ErrCanonicalizerRequired
	}
	if compressor == nil {
		return nil, ErrCompressorRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if ledger == nil {
		return nil, ErrLedgerRequired
	}

	p := &Pipeline{
		canonicalizer: canonicalizer,
		compressor:    compressor,
		index:         index,
		ledger:        ledger,
		logger:        slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Normalize canonicalizes jargon in text and returns the change log.
func (p *Pipeline) Normalize(text string) (string, []string) {
	return p.canonicalizer.NormalizeWithChanges(text)
}

// Optimize compresses text for embedding.
func (p *Pipeline) Optimize(text string) (string, compress.Stats) {
	return p.compressor.Optimize(text)
}

// Search runs a two-phase search for query, preferring category.
func (p *Pipeline) Search(ctx context.Context, query string, topK int, category string) ([]*core.SearchResult, error) {
	return p.index.TwoPhaseSearch(ctx, query, topK, category)
}

// Rerank applies feedback bonuses to results.
func (p *Pipeline) Rerank(results []*core.SearchResult) []*core.SearchResult {
	return p.ledger.Rerank(results)
}

// AddFeedback records whether the article was helpful for query.
func (p *Pipeline) AddFeedback(ctx context.Context, articleID, query string, helpful bool) (core.FeedbackStats, error) {
	if _, ok := p.index.Lookup(articleID); !ok && p.index.Len() > 0 {
		p.logger.Debug("feedback for article not in corpus", "article", articleID)
	}
	return p.ledger.AddFeedback(ctx, articleID, query, helpful)
}

// AssessConfidence labels results by their best similarity.
func (p *Pipeline) AssessConfidence(results []*core.SearchResult) core.Confidence {
	return core.AssessConfidence(results)
}

// Process runs every stage for req. Provider failures, including exhausted
// rate-limit retries, are returned as errors; an empty result set is not an
// error.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Response, error) {
	resp := &Response{Text: req.Text, Category: strings.TrimSpace(req.Category)}

	resp.Normalized, resp.Changes = p.Normalize(req.Text)
	resp.Optimized, resp.Stats = p.Optimize(resp.Normalized)
	if resp.Stats.WasOptimized {
		p.logger.Debug("query optimized",
			"originalTokens", resp.Stats.OriginalTokens,
			"optimizedTokens", resp.Stats.OptimizedTokens)
	}

	if resp.Category == "" && p.classifier != nil {
		r, err := p.classifier.Classify(ctx, resp.Optimized)
		if err != nil {
			return nil, err
		}
		resp.Classified = &r
		if !r.Fallback {
			resp.Category = r.Category
		}
	}

	results, err := p.Search(ctx, resp.Optimized, req.TopK, resp.Category)
	if err != nil {
		return nil, err
	}
	resp.Results = p.Rerank(results)
	resp.Confidence = p.AssessConfidence(resp.Results)
	resp.Answer, resp.Source = pickAnswer(resp.Results)
	resp.Priority = priorityOf(resp.Results)
	resp.Subcategories = subcategoriesOf(resp.Results)

	p.logger.Info("processed request",
		"category", resp.Category,
		"results", len(resp.Results),
		"confidence", resp.Confidence)
	return resp, nil
}

// pickAnswer returns the first non-blank template in rank order.
func pickAnswer(results []*core.SearchResult) (string, *core.SearchResult) {
	if len(results) == 0 {
		return NoMatchAnswer, nil
	}
	for _, r := range results {
		if r.Article == nil {
			continue
		}
		if answer := strings.TrimSpace(r.Article.TemplateAnswer); answer != "" {
			return r.Article.TemplateAnswer, r
		}
	}
	return NoTemplateAnswer, nil
}

func priorityOf(results []*core.SearchResult) string {
	if len(results) == 0 || results[0].Article == nil || results[0].Article.Priority == "" {
		return DefaultPriority
	}
	return results[0].Article.Priority
}

func subcategoriesOf(results []*core.SearchResult) []string {
	subs := []string{}
	for _, r := range results {
		if r.Article == nil {
			continue
		}
		if s := strings.TrimSpace(r.Article.Subcategory); s != "" && !slices.Contains(subs, s) {
			subs = append(subs, s)
		}
	}
	slices.Sort(subs)
	return subs
}
