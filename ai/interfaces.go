package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn sent to a Completer.
type Message struct {
	Role    Role
	Content string
}

// Completer generates text from a chat transcript.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete returns the model's reply to messages.
	// Rate-limited calls are retried according to the provider's Config;
	// an exhausted budget is reported as a *RateLimitError.
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the chat completion service.
	Completer() Completer

	// Validate performs a minimal embedding request to check credentials
	// and connectivity.
	Validate(ctx context.Context) error

	// Close releases resources held by the provider and its services.
	Close() error
}
