package retriever

import (
	"context"
	"errors"
	"fmt"
)

// Failure taxonomy shared by the three retrievers. Both are non-fatal to the
// pipeline: a failed retriever contributes an empty candidate set.
var (
	ErrRetrieverUnavailable = errors.New("retriever unavailable")
	ErrRetrieverTimeout     = errors.New("retriever timed out")
)

// Candidate is one retrieval result. Score is on the source's own scale and
// is not comparable across sources; fusion normalizes before mixing. A
// candidate lives for one orchestration pass and is never persisted.
type Candidate struct {
	Source   string // "vector", "graph" or "geo"
	ID       string // stable within the source
	Score    float64
	Payload  string
	Metadata map[string]interface{}
}

// classify maps a backend error into the retriever failure taxonomy. Caller
// cancellation is not a retriever failure and passes through untouched, so
// a dropped client never shows up in the logs as a timeout.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRetrieverTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrRetrieverUnavailable, err)
}
