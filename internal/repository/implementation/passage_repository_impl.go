package implementation

import (
	"context"

	"fishquery-be/internal/entity"
	"fishquery-be/internal/model"
	"fishquery-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PassageRepositoryImpl struct {
	db *gorm.DB
}

func NewPassageRepository(db *gorm.DB) contract.PassageRepository {
	return &PassageRepositoryImpl{db: db}
}

// SearchSimilarWithScore runs a cosine nearest-neighbour search inside one
// collection. pgvector cosine distance is 1 - cosine_similarity, so the score
// is computed as 1 - (embedding_value <=> query_vector). Ties on similarity
// break by id ascending so repeated searches return a stable order.
func (r *PassageRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, collection string) ([]*contract.ScoredPassage, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.RegulationPassage
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("regulation_passages").
		Select("regulation_passages.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("collection = ?", collection).
		Order("similarity DESC, id ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPassage, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredPassage{
			Passage: &entity.RegulationPassage{
				Id:         res.Id,
				Collection: res.Collection,
				Document:   res.Document,
				ChunkIndex: res.ChunkIndex,
				CreatedAt:  res.CreatedAt,
			},
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *PassageRepositoryImpl) Create(ctx context.Context, passage *entity.RegulationPassage, embedding []float32) error {
	m := &model.RegulationPassage{
		Id:             passage.Id,
		Collection:     passage.Collection,
		Document:       passage.Document,
		EmbeddingValue: pgvector.NewVector(embedding),
		ChunkIndex:     passage.ChunkIndex,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	passage.Id = m.Id
	passage.CreatedAt = m.CreatedAt
	return nil
}
