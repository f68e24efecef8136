package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/storage"
	"github.com/poiesic/ticketrank/storage/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	saves int
}

func (s *failingStore) LoadLedger(ctx context.Context) (*core.LedgerDocument, error) {
	return nil, fmt.Errorf("%w: garbage", storage.ErrSerializationFailed)
}

func (s *failingStore) SaveLedger(ctx context.Context, doc *core.LedgerDocument) error {
	s.saves++
	return errors.New("disk full")
}

func addN(t *testing.T, l *Ledger, id string, helpful, unhelpful int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < helpful; i++ {
		_, err := l.AddFeedback(ctx, id, "q", true)
		require.NoError(t, err)
	}
	for i := 0; i < unhelpful; i++ {
		_, err := l.AddFeedback(ctx, id, "q", false)
		require.NoError(t, err)
	}
}

func TestLedger_AddFeedback(t *testing.T) {
	l, err := NewLedger()
	require.NoError(t, err)
	ctx := context.Background()

	stats, err := l.AddFeedback(ctx, "a", "карта заблокирована", true)
	require.NoError(t, err)
	assert.Equal(t, core.FeedbackStats{Helpful: 1, Total: 1, Rate: 1}, stats)

	stats, err = l.AddFeedback(ctx, "a", "карта заблокирована", false)
	require.NoError(t, err)
	assert.Equal(t, core.FeedbackStats{Helpful: 1, Total: 2, Rate: 0.5}, stats)

	_, err = l.AddFeedback(ctx, " ", "q", true)
	assert.ErrorIs(t, err, core.ErrEmptyArticleID)

	history := l.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, "карта заблокирована", history[0].Query)
	assert.True(t, history[0].IsHelpful)
	assert.False(t, history[1].IsHelpful)
	assert.NotEmpty(t, history[0].ID)
	assert.NotEqual(t, history[0].ID, history[1].ID)
}

func TestLedger_ScoreBonus(t *testing.T) {
	l, err := NewLedger()
	require.NoError(t, err)

	assert.Equal(t, 0.0, l.ScoreBonus("unknown"))

	addN(t, l, "a", 2, 0)
	assert.Equal(t, 0.0, l.ScoreBonus("a"))

	addN(t, l, "b", 9, 1)
	assert.InDelta(t, 0.135, l.ScoreBonus("b"), 1e-9)
}

func TestLedger_HistoryLimit(t *testing.T) {
	l, err := NewLedger(WithHistoryLimit(5))
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := l.AddFeedback(ctx, "a", fmt.Sprintf("q%d", i), true)
		require.NoError(t, err)
	}

	history := l.History(0)
	require.Len(t, history, 5)
	assert.Equal(t, "q3", history[0].Query)
	assert.Equal(t, "q7", history[4].Query)
	assert.Equal(t, 8, l.Stats("a").Total)

	recent := l.History(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "q6", recent[0].Query)

	_, err = NewLedger(WithHistoryLimit(0))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestLedger_DefaultHistoryLimit(t *testing.T) {
	l, err := NewLedger()
	require.NoError(t, err)
	addN(t, l, "a", DefaultHistoryLimit+25, 0)

	assert.Len(t, l.History(0), DefaultHistoryLimit)
	assert.Equal(t, DefaultHistoryLimit+25, l.Stats("a").Total)
}

func TestLedger_Rerank(t *testing.T) {
	l, err := NewLedger()
	require.NoError(t, err)

	weak := &core.Article{ExampleQuestion: "weak", TemplateAnswer: "answer"}
	strong := &core.Article{ExampleQuestion: "strong", TemplateAnswer: "answer"}
	top := &core.Article{ExampleQuestion: "top", TemplateAnswer: "answer"}
	addN(t, l, weak.Identity(), 10, 0)
	addN(t, l, top.Identity(), 10, 0)

	results := []*core.SearchResult{
		{Article: strong, ArticleID: strong.Identity(), Similarity: 0.70, Rank: 1},
		{Article: weak, Similarity: 0.62, Rank: 2},
		{Article: top, ArticleID: top.Identity(), Similarity: 0.95, Rank: 3},
	}

	reranked := l.Rerank(results)
	require.Len(t, reranked, 3)

	assert.Equal(t, top, reranked[0].Article)
	assert.Equal(t, 1.0, reranked[0].Similarity)
	assert.InDelta(t, 0.95, reranked[0].OriginalSimilarity, 1e-9)
	assert.InDelta(t, 0.15, reranked[0].FeedbackBonus, 1e-9)

	assert.Equal(t, weak, reranked[1].Article)
	assert.InDelta(t, 0.77, reranked[1].Similarity, 1e-9)
	assert.Equal(t, weak.Identity(), reranked[1].ArticleID)
	assert.Equal(t, &core.FeedbackStats{Helpful: 10, Total: 10, Rate: 1}, reranked[1].FeedbackStats)

	assert.Equal(t, strong, reranked[2].Article)
	assert.Equal(t, 0.0, reranked[2].FeedbackBonus)
	assert.Equal(t, &core.FeedbackStats{}, reranked[2].FeedbackStats)

	for i, r := range reranked {
		assert.Equal(t, i+1, r.Rank)
		assert.LessOrEqual(t, r.Similarity, 1.0)
		assert.GreaterOrEqual(t, r.Similarity, r.OriginalSimilarity)
		if i > 0 {
			assert.GreaterOrEqual(t, reranked[i-1].Similarity, r.Similarity)
		}
	}
}

func TestLedger_RerankStable(t *testing.T) {
	l, err := NewLedger()
	require.NoError(t, err)

	a := &core.Article{ExampleQuestion: "a"}
	b := &core.Article{ExampleQuestion: "b"}
	results := l.Rerank([]*core.SearchResult{
		{Article: a, Similarity: 0.5},
		{Article: b, Similarity: 0.5},
	})
	assert.Equal(t, a, results[0].Article)
	assert.Equal(t, b, results[1].Article)

	assert.Empty(t, l.Rerank(nil))
}

func TestLedger_Statistics(t *testing.T) {
	l, err := NewLedger()
	require.NoError(t, err)

	assert.Equal(t, Statistics{}, l.Statistics())

	addN(t, l, "a", 3, 1)
	addN(t, l, "b", 1, 3)
	addN(t, l, "c", 2, 0)

	assert.Equal(t, Statistics{
		TemplatesRated:  3,
		TotalFeedback:   10,
		TotalHelpful:    6,
		HelpfulnessRate: 0.6,
		HistorySize:     10,
	}, l.Statistics())

	assert.Equal(t, []string{"a", "b"}, l.TopRated(0))
	assert.Equal(t, []string{"a"}, l.TopRated(1))
}

func TestLedger_Persistence(t *testing.T) {
	ctx := context.Background()
	store := jsonfile.NewLedgerStore(t.TempDir() + "/feedback.json")

	l, err := NewLedger(WithStore(store))
	require.NoError(t, err)
	require.NoError(t, l.Load(ctx))
	addN(t, l, "a", 4, 1)

	reopened, err := NewLedger(WithStore(store))
	require.NoError(t, err)
	require.NoError(t, reopened.Load(ctx))

	assert.Equal(t, core.FeedbackStats{Helpful: 4, Total: 5, Rate: 0.8}, reopened.Stats("a"))
	assert.Len(t, reopened.History(0), 5)
	assert.InDelta(t, l.ScoreBonus("a"), reopened.ScoreBonus("a"), 1e-12)
}

func TestLedger_PersistenceFailure(t *testing.T) {
	store := &failingStore{}
	l, err := NewLedger(WithStore(store))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, l.Load(ctx))
	assert.Equal(t, Statistics{}, l.Statistics())

	stats, err := l.AddFeedback(ctx, "a", "q", true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, l.Stats("a").Total)
}

func TestLedger_Concurrent(t *testing.T) {
	l, err := NewLedger()
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _ = l.AddFeedback(ctx, "a", "q", j%2 == 0)
				_ = l.ScoreBonus("a")
			}
		}()
	}
	wg.Wait()

	stats := l.Stats("a")
	assert.Equal(t, 200, stats.Total)
	assert.Equal(t, 100, stats.Helpful)
}
