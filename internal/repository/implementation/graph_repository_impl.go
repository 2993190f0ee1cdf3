package implementation

import (
	"context"
	"strings"

	"fishquery-be/internal/entity"
	"fishquery-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GraphRepositoryImpl struct {
	db *gorm.DB
}

func NewGraphRepository(db *gorm.DB) contract.GraphRepository {
	return &GraphRepositoryImpl{db: db}
}

// SearchByTerms matches entities by name against the query terms, then walks
// one hop of relations from every match. The traversal score is the relation
// weight scaled by how many terms matched the subject entity, so multi-term
// hits rank above incidental ones. Ties break by relation id for determinism.
func (r *GraphRepositoryImpl) SearchByTerms(ctx context.Context, terms []string, limit int) ([]*contract.ScoredRelation, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	patterns := make([]string, len(terms))
	for i, t := range terms {
		patterns[i] = "%" + strings.ToLower(t) + "%"
	}

	type row struct {
		Id          uuid.UUID
		SubjectId   uuid.UUID
		SubjectName string
		Predicate   string
		ObjectId    uuid.UUID
		ObjectName  string
		Weight      float64
		Matches     int
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Table("graph_relations").
		Select(`graph_relations.id, graph_relations.subject_id, subj.name as subject_name,
			graph_relations.predicate, graph_relations.object_id, obj.name as object_name,
			graph_relations.weight,
			(SELECT count(*) FROM unnest(?::text[]) term WHERE lower(subj.name) LIKE term OR lower(obj.name) LIKE term) as matches`,
			"{"+strings.Join(patterns, ",")+"}").
		Joins("JOIN graph_entities subj ON subj.id = graph_relations.subject_id").
		Joins("JOIN graph_entities obj ON obj.id = graph_relations.object_id").
		Where(buildTermFilter(len(patterns)), termArgs(patterns)...).
		Order("matches DESC, graph_relations.weight DESC, graph_relations.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredRelation, len(rows))
	for i, row := range rows {
		scored[i] = &contract.ScoredRelation{
			Relation: &entity.GraphRelation{
				Id:          row.Id,
				SubjectId:   row.SubjectId,
				SubjectName: row.SubjectName,
				Predicate:   row.Predicate,
				ObjectId:    row.ObjectId,
				ObjectName:  row.ObjectName,
				Weight:      row.Weight,
			},
			Score: row.Weight * float64(row.Matches),
		}
	}
	return scored, nil
}

func buildTermFilter(n int) string {
	clauses := make([]string, n)
	for i := range clauses {
		clauses[i] = "(lower(subj.name) LIKE ? OR lower(obj.name) LIKE ?)"
	}
	return strings.Join(clauses, " OR ")
}

func termArgs(patterns []string) []interface{} {
	args := make([]interface{}, 0, len(patterns)*2)
	for _, p := range patterns {
		args = append(args, p, p)
	}
	return args
}
