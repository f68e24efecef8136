package mock

import (
	"context"
	"sync"

	"github.com/poiesic/ticketrank/ai"
)

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns Reply.
	CompleteFunc func(ctx context.Context, messages []ai.Message, temperature float64, maxTokens int) (string, error)

	// Reply is returned when CompleteFunc is nil.
	Reply string

	mu        sync.Mutex
	callCount int
	last      []ai.Message
}

// NewMockCompleter creates a mock completer that replies with an empty JSON object.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{Reply: "{}"}
}

// Complete records the call and returns the injected reply.
func (m *MockCompleter) Complete(ctx context.Context, messages []ai.Message, temperature float64, maxTokens int) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.last = append([]ai.Message(nil), messages...)
	fn, reply := m.CompleteFunc, m.Reply
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, temperature, maxTokens)
	}
	return reply, nil
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastMessages returns the transcript passed to the most recent call.
func (m *MockCompleter) LastMessages() []ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Reset clears the call count and injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.last = nil
	m.CompleteFunc = nil
	m.Reply = "{}"
}
