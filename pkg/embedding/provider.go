package embedding

import (
	"context"
	"errors"
)

// Sentinel errors for the embedding backend. Wrapped errors carry the cause;
// callers match with errors.Is.
var (
	// ErrUnavailable covers network and auth failures.
	ErrUnavailable = errors.New("embedding service unavailable")
	// ErrTimeout covers a bounded wait being exceeded.
	ErrTimeout = errors.New("embedding request timed out")
)

type EmbeddingResponseEmbedding struct {
	Values []float32
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding
	// Model records which model version produced the vector. Vectors from
	// different model versions are never compared.
	Model string
}

// EmbeddingProvider defines the interface for generating text embeddings.
// Implementations must be safe for concurrent use and must not retry
// internally; retry policy belongs to the caller.
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}
