package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the generation backend cannot be reached or
// rejects the call before any output is produced.
var ErrUnavailable = errors.New("generation service unavailable")

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamChunk is one increment of a streamed answer. Err is terminal: after a
// chunk with Err set, no further chunks are delivered and the channel closes.
type StreamChunk struct {
	Content string
	Err     error
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the full response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// ChatStream sends a chat history and yields the response incrementally.
	// The returned sequence is lazy, finite and non-restartable; the channel
	// is closed after the last chunk. ErrUnavailable is returned directly
	// when the call fails before the first chunk; mid-stream failures arrive
	// as a final chunk with Err set. Cancelling ctx aborts the upstream call.
	ChatStream(ctx context.Context, history []Message, options ...Option) (<-chan StreamChunk, error)
}
