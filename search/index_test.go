package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/ticketrank/ai"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/storage"
	"github.com/poiesic/ticketrank/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReadyIndex(t *testing.T, opts ...Option) (*Index, *recordingEmbedder) {
	t.Helper()
	embedder := &recordingEmbedder{MockEmbedder: newTestEmbedder()}
	x, err := NewIndex(embedder, opts...)
	require.NoError(t, err)
	require.NoError(t, x.LoadCorpus(testArticles()))
	require.NoError(t, x.Prepare(context.Background()))
	require.Equal(t, StateIndexReady, x.State())
	return x, embedder
}

func TestNewIndex(t *testing.T) {
	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewIndex(nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		for _, opt := range []Option{
			WithTopK(0),
			WithSimilarityThreshold(1.5),
			WithFallbackThreshold(-2),
			WithQueryCacheSize(0),
			WithBuildBatchSize(0),
		} {
			_, err := NewIndex(newTestEmbedder(), opt)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		}
	})

	t.Run("starts empty", func(t *testing.T) {
		x, err := NewIndex(newTestEmbedder())
		require.NoError(t, err)
		assert.Equal(t, StateEmpty, x.State())
		assert.Equal(t, "empty", x.State().String())
	})
}

func TestIndex_NotReady(t *testing.T) {
	embedder := newTestEmbedder()
	x, err := NewIndex(embedder)
	require.NoError(t, err)
	ctx := context.Background()

	results, err := x.Search(ctx, "card", 5, "")
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	require.NoError(t, x.LoadCorpus(testArticles()))
	assert.Equal(t, StateCorpusLoaded, x.State())

	results, err = x.TwoPhaseSearch(ctx, "card", 5, "Карты")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestIndex_EmptyCorpus(t *testing.T) {
	x, err := NewIndex(newTestEmbedder())
	require.NoError(t, err)

	require.NoError(t, x.LoadCorpus(nil))
	assert.Equal(t, StateEmpty, x.State())
	require.NoError(t, x.Prepare(context.Background()))
	assert.Equal(t, StateEmpty, x.State())
	assert.ErrorIs(t, x.Rebuild(context.Background()), ErrEmptyCorpus)
}

func TestIndex_OpenCorpusFailure(t *testing.T) {
	x, err := NewIndex(newTestEmbedder())
	require.NoError(t, err)
	require.NoError(t, x.LoadCorpus(testArticles()))

	err = x.OpenCorpus(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, core.ErrDataLoad)
	assert.Equal(t, StateEmpty, x.State())
	assert.Equal(t, 0, x.Len())

	results, err := x.Search(context.Background(), "card", 5, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_LoadCorpusRejectsInvalid(t *testing.T) {
	x, err := NewIndex(newTestEmbedder())
	require.NoError(t, err)

	err = x.LoadCorpus([]*core.Article{{ID: 1, ExampleQuestion: "q"}, nil})
	assert.ErrorIs(t, err, core.ErrInvalidArticle)
}

func TestIndex_Search(t *testing.T) {
	x, _ := newReadyIndex(t)
	ctx := context.Background()

	t.Run("ranks above threshold", func(t *testing.T) {
		results, err := x.Search(ctx, "card", 5, "")
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, 1, results[0].Article.ID)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
		assert.Equal(t, 1, results[0].Rank)
		assert.Equal(t, "card blocked_call the bank", results[0].ArticleID)

		assert.Equal(t, 2, results[1].Article.ID)
		assert.InDelta(t, 0.8, results[1].Similarity, 1e-6)
		assert.Equal(t, 2, results[1].Rank)
	})

	t.Run("top k", func(t *testing.T) {
		results, err := x.Search(ctx, "card", 1, "")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1, results[0].Article.ID)
	})

	t.Run("huge top k returns every match", func(t *testing.T) {
		var results []*core.SearchResult
		var err error
		assert.NotPanics(t, func() {
			results, err = x.Search(ctx, "card", 1<<62, "")
		})
		require.NoError(t, err)
		assert.Len(t, results, 2)

		results, err = x.TwoPhaseSearch(ctx, "card", 1<<62, "Карты")
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("soft category keeps related categories", func(t *testing.T) {
		monitor := &recordingMonitor{}
		results, err := x.SearchWithMonitor(ctx, "card", 5, "Карты", monitor)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Кредитные карты", results[1].Article.MainCategory)
		assert.Empty(t, monitor.rejected)
	})

	t.Run("category rejects disjoint", func(t *testing.T) {
		monitor := &recordingMonitor{}
		results, err := x.SearchWithMonitor(ctx, "deposit", 5, "Карты", monitor)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 2, results[0].Article.ID)
		require.Len(t, monitor.rejected, 1)
		assert.Equal(t, 3, monitor.rejected[0].ID)
	})

	t.Run("nothing above threshold", func(t *testing.T) {
		results, err := x.Search(ctx, "nothing like this", 5, "")
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("blank query", func(t *testing.T) {
		results, err := x.Search(ctx, "  ", 5, "")
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestIndex_SearchSortedDescending(t *testing.T) {
	x, _ := newReadyIndex(t, WithSimilarityThreshold(-1))

	results, err := x.Search(context.Background(), "deposit transfer", 10, "")
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
		assert.Equal(t, i+1, results[i].Rank)
	}
}

func TestIndex_QueryCache(t *testing.T) {
	t.Run("cold and warm results match", func(t *testing.T) {
		x, embedder := newReadyIndex(t)
		ctx := context.Background()
		built := embedder.CallCount()

		cold, err := x.Search(ctx, "card", 5, "")
		require.NoError(t, err)
		assert.Equal(t, built+1, embedder.CallCount())

		monitor := &recordingMonitor{}
		warm, err := x.SearchWithMonitor(ctx, "card", 5, "", monitor)
		require.NoError(t, err)
		assert.Equal(t, built+1, embedder.CallCount())
		assert.Equal(t, 1, monitor.cacheHits)

		require.Equal(t, len(cold), len(warm))
		for i := range cold {
			assert.Equal(t, cold[i].ArticleID, warm[i].ArticleID)
			assert.Equal(t, cold[i].Similarity, warm[i].Similarity)
		}
	})

	t.Run("evicts oldest query", func(t *testing.T) {
		x, embedder := newReadyIndex(t, WithQueryCacheSize(2))
		ctx := context.Background()

		for _, q := range []string{"card", "deposit", "deposit transfer"} {
			_, err := x.Search(ctx, q, 5, "")
			require.NoError(t, err)
		}
		assert.Equal(t, 2, x.CacheLen())

		before := embedder.CallCount()
		_, err := x.Search(ctx, "deposit", 5, "")
		require.NoError(t, err)
		assert.Equal(t, before, embedder.CallCount(), "deposit should still be cached")

		_, err = x.Search(ctx, "card", 5, "")
		require.NoError(t, err)
		assert.Equal(t, before+1, embedder.CallCount(), "card should have been evicted")
	})
}

func TestIndex_TwoPhaseSearch(t *testing.T) {
	x, _ := newReadyIndex(t)
	ctx := context.Background()

	t.Run("filtered good enough", func(t *testing.T) {
		monitor := &recordingMonitor{}
		results, err := x.TwoPhaseSearchWithMonitor(ctx, "card", 5, "Карты", monitor)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 0, monitor.fallbackCalls)
	})

	t.Run("weak filtered falls back to better unfiltered", func(t *testing.T) {
		monitor := &recordingMonitor{}
		results, err := x.TwoPhaseSearchWithMonitor(ctx, "deposit transfer", 5, "Переводы", monitor)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, 3, results[0].Article.ID)
		assert.InDelta(t, 0.866, results[0].Similarity, 1e-3)
		assert.Equal(t, 1, monitor.fallbackCalls)
		assert.True(t, monitor.usedUnfiltered)
		assert.InDelta(t, 0.5, monitor.filteredBest, 1e-3)
	})

	t.Run("empty filtered falls back", func(t *testing.T) {
		results, err := x.TwoPhaseSearch(ctx, "card", 5, "Ипотека")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 1, results[0].Article.ID)
	})

	t.Run("filtered wins ties", func(t *testing.T) {
		monitor := &recordingMonitor{}
		results, err := x.TwoPhaseSearchWithMonitor(ctx, "card not deposit", 5, "Карты", monitor)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1, monitor.fallbackCalls)
		assert.False(t, monitor.usedUnfiltered)
		assert.InDelta(t, monitor.filteredBest, monitor.unfilteredBest, 1e-9)
	})

	t.Run("no category is a plain search", func(t *testing.T) {
		monitor := &recordingMonitor{}
		results, err := x.TwoPhaseSearchWithMonitor(ctx, "deposit transfer", 5, "", monitor)
		require.NoError(t, err)
		assert.Len(t, results, 3)
		assert.Equal(t, 0, monitor.fallbackCalls)
	})

	t.Run("embeds once", func(t *testing.T) {
		x, embedder := newReadyIndex(t)
		before := embedder.CallCount()
		_, err := x.TwoPhaseSearch(ctx, "deposit transfer", 5, "Переводы")
		require.NoError(t, err)
		assert.Equal(t, before+1, embedder.CallCount())
	})
}

func TestIndex_ProviderErrors(t *testing.T) {
	t.Run("rate limit propagates from search", func(t *testing.T) {
		x, embedder := newReadyIndex(t)
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, &ai.RateLimitError{Op: "embed", Attempts: 3, Exhausted: true, Err: ai.ErrRateLimited}
		}

		results, err := x.Search(context.Background(), "card", 5, "")
		assert.Nil(t, results)
		assert.ErrorIs(t, err, ai.ErrMaxRetriesExceeded)
		assert.Equal(t, 3, ai.Attempts(err))
		assert.Equal(t, 0, x.CacheLen())
	})

	t.Run("build failure leaves corpus loaded", func(t *testing.T) {
		embedder := newTestEmbedder()
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, &ai.UpstreamError{Op: "embed batch", Err: errors.New("boom")}
		}
		x, err := NewIndex(embedder)
		require.NoError(t, err)
		require.NoError(t, x.LoadCorpus(testArticles()))

		err = x.Prepare(context.Background())
		assert.ErrorIs(t, err, ai.ErrUpstream)
		assert.Equal(t, StateCorpusLoaded, x.State())
	})

	t.Run("dimension change", func(t *testing.T) {
		x, embedder := newReadyIndex(t)
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0}, nil
		}
		_, err := x.Search(context.Background(), "card", 5, "")
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}

func TestIndex_Persistence(t *testing.T) {
	ctx := context.Background()
	matrices, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	t.Run("builds and saves", func(t *testing.T) {
		x, embedder := newReadyIndex(t, WithMatrixStore(matrices), WithModel("test-model"))
		assert.Equal(t, 4, embedder.textCount())

		stored, err := matrices.LoadMatrix(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, stored.Rows)
		assert.Equal(t, "test-model", stored.Model)
		assert.Equal(t, x.Matrix().Data, stored.Data)
	})

	t.Run("reuses stored matrix", func(t *testing.T) {
		_, embedder := newReadyIndex(t, WithMatrixStore(matrices), WithModel("test-model"))
		assert.Equal(t, 0, embedder.textCount())
	})

	t.Run("rebuilds on row count mismatch", func(t *testing.T) {
		embedder := &recordingEmbedder{MockEmbedder: newTestEmbedder()}
		x, err := NewIndex(embedder, WithMatrixStore(matrices), WithModel("test-model"))
		require.NoError(t, err)
		require.NoError(t, x.LoadCorpus(testArticles()[:3]))
		require.NoError(t, x.Prepare(ctx))

		assert.Equal(t, 3, embedder.textCount())
		stored, err := matrices.LoadMatrix(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.Rows)
	})

	t.Run("rebuilds on content change", func(t *testing.T) {
		_, _ = newReadyIndex(t, WithMatrixStore(matrices), WithModel("test-model"))

		articles := testArticles()
		articles[3] = &core.Article{ID: 4, MainCategory: "Переводы", ExampleQuestion: "deposit", TemplateAnswer: "transfer"}

		embedder := &recordingEmbedder{MockEmbedder: newTestEmbedder()}
		x, err := NewIndex(embedder, WithMatrixStore(matrices), WithModel("test-model"))
		require.NoError(t, err)
		require.NoError(t, x.LoadCorpus(articles))
		require.NoError(t, x.Prepare(ctx))
		assert.Equal(t, 4, embedder.textCount())
	})

	t.Run("rebuilds on model change", func(t *testing.T) {
		_, _ = newReadyIndex(t, WithMatrixStore(matrices), WithModel("test-model"))
		_, embedder := newReadyIndex(t, WithMatrixStore(matrices), WithModel("other-model"))
		assert.Equal(t, 4, embedder.textCount())
	})

	t.Run("rebuilds on unreadable matrix", func(t *testing.T) {
		store := &stubMatrixStore{loadErr: fmt.Errorf("%w: bad row", storage.ErrSerializationFailed)}
		_, embedder := newReadyIndex(t, WithMatrixStore(store))
		assert.Equal(t, 4, embedder.textCount())
		require.NotNil(t, store.saved)
		assert.Equal(t, 4, store.saved.Rows)
	})

	t.Run("forced rebuild", func(t *testing.T) {
		x, embedder := newReadyIndex(t, WithMatrixStore(matrices), WithModel("test-model"))
		before := embedder.textCount()
		require.NoError(t, x.Rebuild(ctx))
		assert.Equal(t, before+4, embedder.textCount())
	})
}

func TestIndex_BuildBatches(t *testing.T) {
	articles := make([]*core.Article, 7)
	for i := range articles {
		articles[i] = &core.Article{ID: i + 1, ExampleQuestion: fmt.Sprintf("q%d", i), TemplateAnswer: "a"}
	}

	var (
		mu      sync.Mutex
		batches []int
	)
	embedder := newTestEmbedder()
	embedder.EmbedTextFunc = nil
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		mu.Lock()
		batches = append(batches, len(texts))
		mu.Unlock()
		out := make([][]float32, len(texts))
		for i, text := range texts {
			var n int
			_, err := fmt.Sscanf(text, "q%d a", &n)
			if err != nil {
				return nil, err
			}
			out[i] = []float32{float32(n + 1), 1}
		}
		return out, nil
	}

	var progress bytes.Buffer
	x, err := NewIndex(embedder, WithBuildBatchSize(2), WithPoolSize(3), WithProgress(&progress))
	require.NoError(t, err)
	require.NoError(t, x.LoadCorpus(articles))
	require.NoError(t, x.Prepare(context.Background()))

	assert.ElementsMatch(t, []int{2, 2, 2, 1}, batches)

	m := x.Matrix()
	require.Equal(t, 7, m.Rows)
	for i := 0; i < m.Rows; i++ {
		want := core.NormalizeVector([]float32{float32(i + 1), 1})
		assert.InDeltaSlice(t, want, m.Row(i), 1e-6, "row %d", i)
	}
	assert.True(t, strings.Contains(progress.String(), "7/7"), progress.String())
}

func TestIndex_BuildCancelled(t *testing.T) {
	embedder := newTestEmbedder()
	x, err := NewIndex(embedder)
	require.NoError(t, err)
	require.NoError(t, x.LoadCorpus(testArticles()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = x.Prepare(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCorpusLoaded, x.State())
}

func TestIndex_Lookup(t *testing.T) {
	x, _ := newReadyIndex(t)

	a, ok := x.Lookup("deposit rate_8 percent")
	require.True(t, ok)
	assert.Equal(t, 3, a.ID)

	_, ok = x.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Вклады", "Карты", "Кредитные карты", "Переводы"}, x.Categories())
}
