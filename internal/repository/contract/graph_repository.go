package contract

import (
	"context"

	"fishquery-be/internal/entity"
)

// ScoredRelation is a matched relation path with its traversal score.
type ScoredRelation struct {
	Relation *entity.GraphRelation
	Score    float64
}

type GraphRepository interface {
	// SearchByTerms matches graph entities against the extracted query terms
	// and walks their relations, strongest edges first.
	SearchByTerms(ctx context.Context, terms []string, limit int) ([]*ScoredRelation, error)
}
