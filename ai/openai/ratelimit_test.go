package openai

import (
	"errors"
	"testing"

	"github.com/poiesic/ticketrank/ai"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		limited bool
	}{
		{"status code in message", errors.New("API returned unexpected status code: 429: slow down"), true},
		{"rate limit phrase", errors.New("Rate limit reached for requests"), true},
		{"too many requests", errors.New("Too Many Requests"), true},
		{"auth failure", errors.New("API returned unexpected status code: 401: invalid key"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.limited, errors.Is(got, ai.ErrRateLimited))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, classify(nil))
}

func TestNewProvider_RequiresKey(t *testing.T) {
	_, err := NewProvider(ai.NewConfig())
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithHost("http://localhost:11434"), ai.WithAPIKey("none")))
	assert.NoError(t, err)
	assert.NotNil(t, p.Embedder())
	assert.NotNil(t, p.Completer())
	assert.NoError(t, p.Close())
}
