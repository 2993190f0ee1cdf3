package retriever

import (
	"context"
	"fmt"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/repository/contract"
)

// GeoRetriever matches regulatory boundary features against location terms
// from the query. Its score is a relevance proxy, not a similarity.
type GeoRetriever struct {
	repo contract.BoundaryRepository
}

func NewGeoRetriever(repo contract.BoundaryRepository) *GeoRetriever {
	return &GeoRetriever{repo: repo}
}

func (r *GeoRetriever) Search(ctx context.Context, terms []string, topK int) ([]Candidate, error) {
	scored, err := r.repo.SearchByTerms(ctx, terms, topK)
	if err != nil {
		return nil, classify(err)
	}

	candidates := make([]Candidate, len(scored))
	for i, s := range scored {
		b := s.Boundary
		metadata := map[string]interface{}{
			"kind":     b.Kind,
			"geometry": b.GeometryWKT,
		}
		for k, v := range b.Attributes {
			metadata[k] = v
		}
		candidates[i] = Candidate{
			Source:   constant.CandidateSourceGeo,
			ID:       b.Id.String(),
			Score:    s.Score,
			Payload:  renderBoundary(b.Name, b.Kind, b.Attributes),
			Metadata: metadata,
		}
	}
	return candidates, nil
}

func renderBoundary(name, kind string, attrs map[string]interface{}) string {
	out := fmt.Sprintf("%s (%s)", name, kind)
	if rule, ok := attrs["rule"].(string); ok && rule != "" {
		out += ": " + rule
	}
	return out
}
