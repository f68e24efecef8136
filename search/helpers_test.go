package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/ticketrank/ai/mock"
	"github.com/poiesic/ticketrank/core"
)

// testArticles is a four-article corpus whose embeddings are fixed 3-d vectors.
func testArticles() []*core.Article {
	return []*core.Article{
		{ID: 1, MainCategory: "Карты", ExampleQuestion: "card blocked", TemplateAnswer: "call the bank"},
		{ID: 2, MainCategory: "Кредитные карты", ExampleQuestion: "credit card limit", TemplateAnswer: "see the app"},
		{ID: 3, MainCategory: "Вклады", ExampleQuestion: "deposit rate", TemplateAnswer: "8 percent"},
		{ID: 4, MainCategory: "Переводы", ExampleQuestion: "transfer fee", TemplateAnswer: "free"},
	}
}

var testVectors = map[string][]float32{
	"card blocked call the bank":    {1, 0, 0},
	"credit card limit see the app": {0.8, 0.6, 0},
	"deposit rate 8 percent":        {0, 1, 0},
	"transfer fee free":             {0, 0, 1},

	"card":              {1, 0, 0},
	"deposit":           {0, 1, 0},
	"deposit transfer":  {0, 0.866, 0.5},
	"card not deposit":  {0.5, -0.866, 0},
	"nothing like this": {0, 0, -1},
}

// newTestEmbedder returns a mock embedder that serves testVectors.
func newTestEmbedder() *mock.MockEmbedder {
	e := mock.NewMockEmbedder()
	e.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		v, ok := testVectors[text]
		if !ok {
			return nil, fmt.Errorf("no test vector for %q", text)
		}
		return v, nil
	}
	return e
}

type recordingMonitor struct {
	noopMonitor
	cacheHits      int
	cacheMisses    int
	rejected       []*core.Article
	fallbackCalls  int
	usedUnfiltered bool
	filteredBest   float64
	unfilteredBest float64
	finished       []*core.SearchResult
}

func (m *recordingMonitor) QueryEmbedding(hit bool) {
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *recordingMonitor) CategoryRejected(a *core.Article, _ float64) {
	m.rejected = append(m.rejected, a)
}

func (m *recordingMonitor) Fallback(filteredBest, unfilteredBest float64, usedUnfiltered bool) {
	m.fallbackCalls++
	m.filteredBest = filteredBest
	m.unfilteredBest = unfilteredBest
	m.usedUnfiltered = usedUnfiltered
}

func (m *recordingMonitor) Finish(results []*core.SearchResult) {
	m.finished = results
}

type stubMatrixStore struct {
	loadErr error
	saved   *core.EmbeddingMatrix
}

func (s *stubMatrixStore) LoadMatrix(ctx context.Context) (*core.EmbeddingMatrix, error) {
	return nil, s.loadErr
}

func (s *stubMatrixStore) SaveMatrix(ctx context.Context, m *core.EmbeddingMatrix) error {
	s.saved = m
	return nil
}

// recordingEmbedder counts texts embedded through EmbedTexts, which only
// the matrix build uses.
type recordingEmbedder struct {
	*mock.MockEmbedder
	mu    sync.Mutex
	texts int
}

func (r *recordingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	r.mu.Lock()
	r.texts += len(texts)
	r.mu.Unlock()
	return r.MockEmbedder.EmbedTexts(ctx, texts)
}

func (r *recordingEmbedder) textCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.texts
}
