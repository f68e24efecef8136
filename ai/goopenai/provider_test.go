package goopenai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/ticketrank/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(url string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(url),
		ai.WithAPIKey("test-key"),
		ai.WithMaxRetries(1),
		ai.WithRetrySchedule(time.Millisecond),
	)
}

func TestEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			// reversed order to check index handling
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{"object": "embedding", "index": j, "embedding": []float32{float32(j), 1}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "m"})
	}))
	defer srv.Close()

	p, err := NewProvider(newTestConfig(srv.URL))
	require.NoError(t, err)

	vectors, err := p.Embedder().EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i), 1}, v)
	}

	assert.NoError(t, p.Validate(context.Background()))
}

func TestEmbedder_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	e, err := NewEmbedder(newTestConfig(srv.URL))
	require.NoError(t, err)

	v, err := e.EmbedText(context.Background(), "card")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedder_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, err := NewEmbedder(newTestConfig(srv.URL))
	require.NoError(t, err)

	_, err = e.EmbedText(context.Background(), "card")
	assert.ErrorIs(t, err, ai.ErrMaxRetriesExceeded)
	assert.Equal(t, 2, ai.Attempts(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedder_AuthFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := NewProvider(newTestConfig(srv.URL))
	require.NoError(t, err)

	err = p.Validate(context.Background())
	assert.ErrorIs(t, err, ai.ErrUpstream)
	assert.NotErrorIs(t, err, ai.ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  {\"category\":\"Карты\"} "}}]}`))
	}))
	defer srv.Close()

	c, err := NewCompleter(newTestConfig(srv.URL))
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), []ai.Message{
		{Role: ai.RoleSystem, Content: "classify"},
		{Role: ai.RoleUser, Content: "card blocked"},
	}, 0.1, 100)
	require.NoError(t, err)
	assert.Equal(t, `{"category":"Карты"}`, reply)
}
