package contract

import (
	"context"

	"fishquery-be/internal/entity"
)

// ScoredPassage pairs a passage with its cosine similarity to the query vector.
type ScoredPassage struct {
	Passage    *entity.RegulationPassage
	Similarity float64
}

type PassageRepository interface {
	// SearchSimilarWithScore returns the limit nearest passages in the named
	// collection, ordered by descending similarity, id ascending on ties.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, collection string) ([]*ScoredPassage, error)

	Create(ctx context.Context, passage *entity.RegulationPassage, embedding []float32) error
}
