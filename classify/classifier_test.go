package classify

import (
	"context"
	"testing"

	"github.com/poiesic/ticketrank/ai"
	"github.com/poiesic/ticketrank/ai/mock"
	"github.com/poiesic/ticketrank/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArticles() []*core.Article {
	return []*core.Article{
		{MainCategory: "Карты", Subcategory: "Блокировка", ExampleQuestion: "Карта заблокирована"},
		{MainCategory: "Карты", Subcategory: "Выпуск", ExampleQuestion: "Как выпустить карту"},
		{MainCategory: "Кредиты", ExampleQuestion: "Как взять кредит"},
		{MainCategory: "Карты", Subcategory: "Блокировка", ExampleQuestion: "Разблокировать карту"},
	}
}

func TestClassifier_Classify(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.Reply = "Вот ответ:\n```json\n{\"category\": \"карты\", \"subcategory\": \"блокировка\", \"confidence\": \"высокая\", \"reasoning\": \"про карту\"}\n```"

	c, err := New(completer, testArticles())
	require.NoError(t, err)

	r, err := c.Classify(context.Background(), "Моя карта заблокирована")
	require.NoError(t, err)
	assert.Equal(t, "Карты", r.Category)
	assert.Equal(t, "Блокировка", r.Subcategory)
	assert.Equal(t, "высокая", r.Confidence)
	assert.False(t, r.Fallback)

	msgs := completer.LastMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "Карты (Блокировка, Выпуск); Кредиты")
	assert.Contains(t, msgs[1].Content, "Моя карта заблокирована")
}

func TestClassifier_Cache(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.Reply = `{"category": "Кредиты"}`

	c, err := New(completer, testArticles(), WithCacheSize(1))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("hit ignores case and spacing", func(t *testing.T) {
		_, err := c.Classify(ctx, "Хочу кредит")
		require.NoError(t, err)
		r, err := c.Classify(ctx, "  хочу КРЕДИТ ")
		require.NoError(t, err)
		assert.Equal(t, "Кредиты", r.Category)
		assert.Equal(t, 1, completer.CallCount())
	})

	t.Run("oldest entry evicted", func(t *testing.T) {
		_, err := c.Classify(ctx, "другой запрос")
		require.NoError(t, err)
		_, err = c.Classify(ctx, "Хочу кредит")
		require.NoError(t, err)
		assert.Equal(t, 3, completer.CallCount())
	})
}

func TestClassifier_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no object", "не знаю"},
		{"broken json", `{"category": }`},
		{"unknown category", `{"category": "Ипотека"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := mock.NewMockCompleter()
			completer.Reply = tt.reply
			c, err := New(completer, testArticles())
			require.NoError(t, err)

			r, err := c.Classify(context.Background(), "запрос")
			require.NoError(t, err)
			assert.Equal(t, FallbackCategory, r.Category)
			assert.True(t, r.Fallback)

			_, err = c.Classify(context.Background(), "запрос")
			require.NoError(t, err)
			assert.Equal(t, 2, completer.CallCount(), "fallbacks are not cached")
		})
	}

	t.Run("blank request", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		c, err := New(completer, testArticles())
		require.NoError(t, err)
		r, err := c.Classify(context.Background(), "   ")
		require.NoError(t, err)
		assert.True(t, r.Fallback)
		assert.Equal(t, 0, completer.CallCount())
	})

	t.Run("empty corpus", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		c, err := New(completer, nil)
		require.NoError(t, err)
		r, err := c.Classify(context.Background(), "запрос")
		require.NoError(t, err)
		assert.Equal(t, FallbackCategory, r.Category)
		assert.Equal(t, 0, completer.CallCount())
	})

	t.Run("unknown subcategory dropped", func(t *testing.T) {
		completer := mock.NewMockCompleter()
		completer.Reply = `{"category": "Карты", "subcategory": "Кешбэк"}`
		c, err := New(completer, testArticles())
		require.NoError(t, err)
		r, err := c.Classify(context.Background(), "запрос")
		require.NoError(t, err)
		assert.Equal(t, "Карты", r.Category)
		assert.Empty(t, r.Subcategory)
	})
}

func TestClassifier_RateLimited(t *testing.T) {
	completer := mock.NewMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, messages []ai.Message, temperature float64, maxTokens int) (string, error) {
		return "", &ai.RateLimitError{Op: "complete", Attempts: 3, Exhausted: true}
	}
	c, err := New(completer, testArticles())
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), "запрос")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrMaxRetriesExceeded)
	assert.Equal(t, 3, ai.Attempts(err))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, testArticles())
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = New(mock.NewMockCompleter(), nil, WithCacheSize(0))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid", `{"category": "x"}`, `{"category": "x"}`},
		{"missing first quote", `{category": "x"}`, `{"category": "x"}`},
		{"missing later quote", `{"category": "x", reasoning": "y"}`, `{"category": "x", "reasoning": "y"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}
