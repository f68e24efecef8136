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


package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/ticketrank/ai"
	"github.com/poiesic/ticketrank/cache"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/corpus"
	"github.com/poiesic/ticketrank/storage"
)

// Index is the semantic index over the article corpus.
//
// The embedding matrix is computed once through the embedder, persisted via
// the optional MatrixStore and reused on later starts. Query embeddings are
// kept in a bounded FIFO cache keyed by a fingerprint of the raw query.
type Index struct {
	embedder  ai.Embedder
	store     storage.MatrixStore
	model     string
	topK      int
	threshold float64
	fallback  float64
	cacheSize int
	batchSize int
	poolSize  int
	progress  io.Writer
	cache     *cache.FIFO[uint64, []float32]
	logger    *slog.Logger

	// buildMu serializes corpus changes and matrix builds.
	buildMu sync.Mutex

	mu         sync.RWMutex
	state      State
	articles   []*core.Article
	byIdentity map[string]*core.Article
	digest     uint64
	matrix     *core.EmbeddingMatrix
}

// NewIndex creates an empty index.
func NewIndex(embedder ai.Embedder, opts ...Option) (*Index, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	x := &Index{
		embedder:  embedder,
		topK:      DefaultTopK,
		threshold: DefaultSimilarityThreshold,
		fallback:  DefaultFallbackThreshold,
		cacheSize: DefaultQueryCacheSize,
		batchSize: DefaultBuildBatchSize,
		poolSize:  poolSize,
		logger:    slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(x); err != nil {
			return nil, err
		}
	}

	x.cache = cache.NewFIFO[uint64, []float32](x.cacheSize)
	return x, nil
}

// OpenCorpus loads articles from path. On failure the index is left empty,
// so searches keep returning no results, and the *core.DataLoadError is
// returned for the caller to report.
func (x *Index) OpenCorpus(path string) error {
	articles, err := corpus.NewLoader(corpus.WithLogger(x.logger)).Load(path)
	if err != nil {
		x.logger.Error("failed to load corpus, index is empty", "path", path, "err", err)
		x.buildMu.Lock()
		x.reset()
		x.buildMu.Unlock()
		return err
	}
	return x.LoadCorpus(articles)
}

// LoadCorpus replaces the corpus. Any matrix is discarded and the index
// returns to StateCorpusLoaded, or StateEmpty for an empty corpus.
func (x *Index) LoadCorpus(articles []*core.Article) error {
	for i, a := range articles {
		if err := core.ValidateArticle(a); err != nil {
			return fmt.Errorf("article %d: %w", i, err)
		}
	}

	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	if len(articles) == 0 {
		x.logger.Warn("corpus has no articles, index is empty")
		x.reset()
		return nil
	}

	byIdentity := make(map[string]*core.Article, len(articles))
	for _, a := range articles {
		id := a.Identity()
		if _, dup := byIdentity[id]; dup {
			x.logger.Debug("articles share a feedback identity", "id", a.ID)
			continue
		}
		byIdentity[id] = a
	}

	x.mu.Lock()
	x.articles = slices.Clone(articles)
	x.byIdentity = byIdentity
	x.digest = core.CorpusDigest(articles)
	x.matrix = nil
	x.state = StateCorpusLoaded
	x.mu.Unlock()

	x.logger.Info("corpus loaded", "articles", len(articles))
	return nil
}

func (x *Index) reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.articles = nil
	x.byIdentity = nil
	x.digest = 0
	x.matrix = nil
	x.state = StateEmpty
}

// Prepare makes a loaded corpus searchable. A persisted matrix is reused
// when it matches the corpus; otherwise the matrix is built through the
// embedder and persisted. Prepare is a no-op when the index is empty or
// already ready.
func (x *Index) Prepare(ctx context.Context) error {
	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	x.mu.RLock()
	state := x.state
	x.mu.RUnlock()

	switch state {
	case StateEmpty:
		x.logger.Warn("no corpus loaded, skipping index preparation")
		return nil
	case StateIndexReady:
		return nil
	}

	m, err := x.loadMatrix(ctx)
	if err == nil {
		x.install(m)
		x.logger.Info("index ready from persisted matrix", "rows", m.Rows, "dim", m.Dim)
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return x.build(ctx)
}

// Rebuild recomputes and persists the matrix regardless of what is stored.
func (x *Index) Rebuild(ctx context.Context) error {
	x.buildMu.Lock()
	defer x.buildMu.Unlock()

	x.mu.RLock()
	empty := x.state == StateEmpty
	x.mu.RUnlock()
	if empty {
		return ErrEmptyCorpus
	}
	return x.build(ctx)
}

// loadMatrix returns the persisted matrix if it belongs to the current corpus.
func (x *Index) loadMatrix(ctx context.Context) (*core.EmbeddingMatrix, error) {
	if x.store == nil {
		return nil, storage.ErrNotFound
	}

	m, err := x.store.LoadMatrix(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		x.logger.Info("no persisted embedding matrix, building")
		return nil, err
	}
	if err != nil {
		x.logger.Warn("discarding unreadable embedding matrix", "err", err)
		return nil, err
	}

	x.mu.RLock()
	articles, digest := len(x.articles), x.digest
	x.mu.RUnlock()

	if err := m.CheckCorpus(articles, digest); err != nil {
		x.logger.Warn("persisted embedding matrix does not match corpus, rebuilding", "err", err)
		return nil, err
	}
	if x.model != "" && m.Model != "" && m.Model != x.model {
		x.logger.Warn("persisted embedding matrix built with another model, rebuilding",
			"stored", m.Model, "configured", x.model)
		return nil, fmt.Errorf("%w: built with model %q", core.ErrIndexMismatch, m.Model)
	}
	return m, nil
}

func (x *Index) build(ctx context.Context) error {
	x.mu.RLock()
	articles, digest := x.articles, x.digest
	x.mu.RUnlock()

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.EmbeddingText()
	}

	x.logger.Info("building embedding matrix", "articles", len(texts), "batchSize", x.batchSize, "workers", x.poolSize)
	vectors, err := x.embedAll(ctx, texts)
	if err != nil {
		x.logger.Error("failed to build embedding matrix", "err", err)
		return err
	}

	m, err := core.NewEmbeddingMatrix(vectors, x.model, digest)
	if err != nil {
		return err
	}

	if x.store != nil {
		if err := x.store.SaveMatrix(ctx, m); err != nil {
			x.logger.Warn("failed to persist embedding matrix", "err", err)
		}
	}

	x.install(m)
	x.logger.Info("index ready", "rows", m.Rows, "dim", m.Dim)
	return nil
}

func (x *Index) install(m *core.EmbeddingMatrix) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.matrix = m
	x.state = StateIndexReady
}

// State returns the lifecycle stage.
func (x *Index) State() State {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.state
}

// Len returns the number of loaded articles.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.articles)
}

// Articles returns the loaded articles in corpus order.
func (x *Index) Articles() []*core.Article {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return slices.Clone(x.articles)
}

// Categories returns the sorted distinct main categories of the corpus.
func (x *Index) Categories() []string {
	return corpus.Categories(x.Articles())
}

// Lookup returns the article with the given feedback identity.
func (x *Index) Lookup(articleID string) (*core.Article, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	a, ok := x.byIdentity[articleID]
	return a, ok
}

// Matrix returns the active embedding matrix, or nil before StateIndexReady.
func (x *Index) Matrix() *core.EmbeddingMatrix {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.matrix
}

// CacheLen returns the number of cached query embeddings.
func (x *Index) CacheLen() int {
	return x.cache.Len()
}

// snapshot returns the corpus and matrix if the index is ready.
func (x *Index) snapshot() ([]*core.Article, *core.EmbeddingMatrix, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.state != StateIndexReady {
		return nil, nil, false
	}
	return x.articles, x.matrix, true
}

// Search returns up to topK articles whose similarity to query is at least
// the similarity threshold and whose category passes CategoryMatches.
// topK <= 0 selects the configured default. A blank query or an index that
// is not ready yields an empty result, not an error.
func (x *Index) Search(ctx context.Context, query string, topK int, category string) ([]*core.SearchResult, error) {
	return x.SearchWithMonitor(ctx, query, topK, category, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (x *Index) SearchWithMonitor(ctx context.Context, query string, topK int, category string, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query, category)

	articles, scores, err := x.score(ctx, query, monitor)
	if err != nil {
		return nil, err
	}

	results := x.rank(articles, scores, topK, category, monitor)
	monitor.Finish(results)
	return results, nil
}

// TwoPhaseSearch searches within category first. When that finds nothing,
// or its best similarity is below the fallback threshold, it also searches
// without the filter and returns whichever set has the higher top
// similarity; the filtered set wins ties. The query is embedded once.
func (x *Index) TwoPhaseSearch(ctx context.Context, query string, topK int, category string) ([]*core.SearchResult, error) {
	return x.TwoPhaseSearchWithMonitor(ctx, query, topK, category, nil)
}

// TwoPhaseSearchWithMonitor is TwoPhaseSearch with callbacks at each stage.
func (x *Index) TwoPhaseSearchWithMonitor(ctx context.Context, query string, topK int, category string, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query, category)

	articles, scores, err := x.score(ctx, query, monitor)
	if err != nil {
		return nil, err
	}
	if scores == nil {
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	filtered := x.rank(articles, scores, topK, category, monitor)
	if strings.TrimSpace(category) == "" || (len(filtered) > 0 && filtered[0].Similarity >= x.fallback) {
		monitor.Finish(filtered)
		return filtered, nil
	}

	unfiltered := x.rank(articles, scores, topK, "", nil)
	useUnfiltered := len(filtered) == 0 || (len(unfiltered) > 0 && unfiltered[0].Similarity > filtered[0].Similarity)
	monitor.Fallback(best(filtered), best(unfiltered), useUnfiltered)
	x.logger.Debug("category search below fallback threshold",
		"category", category,
		"filteredBest", best(filtered),
		"unfilteredBest", best(unfiltered),
		"usedUnfiltered", useUnfiltered)

	results := filtered
	if useUnfiltered {
		results = unfiltered
	}
	monitor.Finish(results)
	return results, nil
}

func best(results []*core.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Similarity
}

// score embeds query (through the cache) and returns its similarity to
// every article. A nil score slice means there is nothing to search.
func (x *Index) score(ctx context.Context, query string, monitor SearchMonitor) ([]*core.Article, []float64, error) {
	articles, matrix, ready := x.snapshot()
	if !ready {
		x.logger.Debug("search on index that is not ready", "state", x.State())
		return nil, nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil, nil
	}

	vector, err := x.queryEmbedding(ctx, query, monitor)
	if err != nil {
		return nil, nil, err
	}

	scores, err := matrix.Similarities(vector)
	if err != nil {
		x.logger.Error("query embedding does not fit matrix", "err", err)
		return nil, nil, err
	}
	return articles, scores, nil
}

func (x *Index) queryEmbedding(ctx context.Context, query string, monitor SearchMonitor) ([]float32, error) {
	key := core.Fingerprint(query)
	if vector, ok := x.cache.Get(key); ok {
		monitor.QueryEmbedding(true)
		x.logger.Debug("query embedding cache hit")
		return vector, nil
	}
	monitor.QueryEmbedding(false)

	vector, err := x.embedder.EmbedText(ctx, query)
	if err != nil {
		x.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	vector = core.NormalizeVector(vector)
	x.cache.Put(key, vector)
	return vector, nil
}

// rank applies the threshold and category filter, then sorts and truncates.
// Ties keep corpus order.
func (x *Index) rank(articles []*core.Article, scores []float64, topK int, category string, monitor SearchMonitor) []*core.SearchResult {
	if topK <= 0 {
		topK = x.topK
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	results := make([]*core.SearchResult, 0, min(topK, len(scores)))
	above := 0
	for i, similarity := range scores {
		if similarity < x.threshold {
			continue
		}
		above++
		article := articles[i]
		if !CategoryMatches(article.MainCategory, category) {
			monitor.CategoryRejected(article, similarity)
			continue
		}
		results = append(results, &core.SearchResult{
			Article:    article,
			ArticleID:  article.Identity(),
			Similarity: similarity,
		})
	}
	monitor.AfterScoring(above)

	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})
	if len(results) > topK {
		results = results[:topK]
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	return results
}
