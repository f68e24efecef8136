package goopenai

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/ticketrank/ai"
	openai "github.com/sashabaranov/go-openai"
)

func newClient(host, key string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	cfg.BaseURL = host
	return openai.NewClientWithConfig(cfg)
}

// classify wraps HTTP 429 responses with ai.ErrRateLimited.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if statusCode(err) == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
	}
	return err
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
