package rerank

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the rerank backend cannot score the
// candidates. Callers fall back to their pre-rerank ordering.
var ErrUnavailable = errors.New("rerank service unavailable")

// Candidate is a document candidate for cross-encoder scoring.
type Candidate struct {
	// ID identifies the candidate so results can be mapped back.
	ID string
	// Content is the text scored against the query.
	Content string
}

// Result is a reranked candidate with a single comparable relevance score.
type Result struct {
	ID    string
	Score float64
}

// Reranker scores (query, candidate) pairs with a cross-encoder model,
// producing one relevance scale across candidates from incomparable sources.
type Reranker interface {
	// Rerank returns one result per candidate. Order of results is not
	// specified; callers sort by score.
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]Result, error)

	// ModelName returns the model identifier for logging.
	ModelName() string
}
