package goopenai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/ticketrank/ai"
	openai "github.com/sashabaranov/go-openai"
)

// Completer implements ai.Completer with the go-openai chat endpoint.
type Completer struct {
	client  *openai.Client
	model   string
	retrier *ai.Retrier
	logger  *slog.Logger
}

func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := slog.Default().With("component", "goopenai-completer")
	return &Completer{
		client:  newClient(config.CompletionHost, config.APIKey),
		model:   config.CompletionModel,
		retrier: ai.NewRetrier(config, logger),
		logger:  logger,
	}, nil
}

// NewCompleter creates a completer from config.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete returns the model's reply to messages.
func (c *Completer) Complete(ctx context.Context, messages []ai.Message, temperature float64, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    chatRole(m.Role),
			Content: m.Content,
		})
	}

	var reply string
	err := c.retrier.Do(ctx, "complete", func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return ai.ErrEmptyResponse
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		c.logger.Error("chat completion failed", "err", err)
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func chatRole(role ai.Role) string {
	switch role {
	case ai.RoleSystem:
		return openai.ChatMessageRoleSystem
	case ai.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
