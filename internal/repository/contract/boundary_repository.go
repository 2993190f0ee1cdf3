package contract

import (
	"context"

	"fishquery-be/internal/entity"
)

// ScoredBoundary is a spatial feature with a relevance proxy score. The score
// scale is local to the geospatial source and not comparable to similarity
// scores from the other retrievers.
type ScoredBoundary struct {
	Boundary *entity.RegulatoryBoundary
	Score    float64
}

type BoundaryRepository interface {
	// SearchByTerms matches boundary names and attributes against the
	// extracted location terms.
	SearchByTerms(ctx context.Context, terms []string, limit int) ([]*ScoredBoundary, error)
}
