package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/ticketrank/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client  llms.Model
	retrier *ai.Retrier
	logger  *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-completer")
	return &Completer{
		client:  client,
		retrier: ai.NewRetrier(config, logger),
		logger:  logger,
	}, nil
}

// NewCompleter creates a new completer using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete returns the model's reply to messages.
func (c *Completer) Complete(ctx context.Context, messages []ai.Message, temperature float64, maxTokens int) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.MessageContent{
			Role:  chatRole(m.Role),
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}

	callOpts := []llms.CallOption{llms.WithTemperature(temperature)}
	if maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(maxTokens))
	}

	var reply string
	err := c.retrier.Do(ctx, "complete", func(ctx context.Context) error {
		response, err := c.client.GenerateContent(ctx, content, callOpts...)
		if err != nil {
			return classify(err)
		}
		if len(response.Choices) < 1 {
			return ai.ErrEmptyResponse
		}
		reply = response.Choices[0].Content
		return nil
	})
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	c.logger.Debug("generated completion", "messages", len(messages), "length", len(reply))
	return strings.TrimSpace(reply), nil
}

func chatRole(role ai.Role) llms.ChatMessageType {
	switch role {
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
