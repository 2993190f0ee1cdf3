package retriever

import (
	"context"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/repository/contract"
)

// VectorRetriever searches the named passage collection by embedding
// similarity. Ordering comes from the backend: descending similarity, id
// ascending on ties.
type VectorRetriever struct {
	repo       contract.PassageRepository
	collection string
}

func NewVectorRetriever(repo contract.PassageRepository, collection string) *VectorRetriever {
	return &VectorRetriever{
		repo:       repo,
		collection: collection,
	}
}

func (r *VectorRetriever) Search(ctx context.Context, vector []float32, topK int) ([]Candidate, error) {
	scored, err := r.repo.SearchSimilarWithScore(ctx, vector, topK, r.collection)
	if err != nil {
		return nil, classify(err)
	}

	candidates := make([]Candidate, len(scored))
	for i, s := range scored {
		candidates[i] = Candidate{
			Source:  constant.CandidateSourceVector,
			ID:      s.Passage.Id.String(),
			Score:   s.Similarity,
			Payload: s.Passage.Document,
			Metadata: map[string]interface{}{
				"collection":  s.Passage.Collection,
				"chunk_index": s.Passage.ChunkIndex,
			},
		}
	}
	return candidates, nil
}
