package goopenai

import (
	"context"
	"log/slog"

	"github.com/poiesic/ticketrank/ai"
	openai "github.com/sashabaranov/go-openai"
)

// Embedder implements ai.Embedder with the go-openai embeddings endpoint.
type Embedder struct {
	client  *openai.Client
	model   string
	retrier *ai.Retrier
	logger  *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "goopenai-embedder")
	return &Embedder{
		client:  newClient(config.EmbeddingHost, config.APIKey),
		model:   config.EmbeddingModel,
		retrier: ai.NewRetrier(config, logger),
		logger:  logger,
	}, nil
}

// NewEmbedder creates an embedder from config.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, "embed", []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return e.embed(ctx, "embed batch", texts)
}

func (e *Embedder) embed(ctx context.Context, op string, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	err := e.retrier.Do(ctx, op, func(ctx context.Context) error {
		var err error
		resp, err = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(e.model),
			Input: texts,
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Data) != len(texts) {
			return ai.ErrEmptyResponse
		}
		return nil
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, &ai.UpstreamError{Op: op, Err: ai.ErrEmptyResponse}
		}
		vectors[d.Index] = d.Embedding
	}
	for _, v := range vectors {
		if len(v) == 0 {
			return nil, &ai.UpstreamError{Op: op, Err: ai.ErrEmptyResponse}
		}
	}
	return vectors, nil
}
