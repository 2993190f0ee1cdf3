package retriever

import (
	"context"
	"fmt"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/repository/contract"
)

// GraphRetriever looks up species/regulation relations matching the extracted
// query terms. Each candidate is a relation path rendered to text.
type GraphRetriever struct {
	repo contract.GraphRepository
}

func NewGraphRetriever(repo contract.GraphRepository) *GraphRetriever {
	return &GraphRetriever{repo: repo}
}

func (r *GraphRetriever) Search(ctx context.Context, terms []string, topK int) ([]Candidate, error) {
	scored, err := r.repo.SearchByTerms(ctx, terms, topK)
	if err != nil {
		return nil, classify(err)
	}

	candidates := make([]Candidate, len(scored))
	for i, s := range scored {
		rel := s.Relation
		candidates[i] = Candidate{
			Source:  constant.CandidateSourceGraph,
			ID:      rel.Id.String(),
			Score:   s.Score,
			Payload: renderRelation(rel.SubjectName, rel.Predicate, rel.ObjectName),
			Metadata: map[string]interface{}{
				"subject":   rel.SubjectName,
				"predicate": rel.Predicate,
				"object":    rel.ObjectName,
			},
		}
	}
	return candidates, nil
}

// renderRelation turns a triple into a readable sentence fragment for the
// generator context.
func renderRelation(subject, predicate, object string) string {
	return fmt.Sprintf("%s — %s — %s", subject, humanizePredicate(predicate), object)
}

func humanizePredicate(predicate string) string {
	switch predicate {
	case "subject_to":
		return "is subject to"
	case "closed_during":
		return "is closed during"
	case "bag_limit":
		return "has bag limit"
	case "found_in":
		return "is found in"
	default:
		return predicate
	}
}
