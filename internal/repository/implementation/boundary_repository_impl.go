package implementation

import (
	"context"
	"encoding/json"
	"strings"

	"fishquery-be/internal/entity"
	"fishquery-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BoundaryRepositoryImpl struct {
	db *gorm.DB
}

func NewBoundaryRepository(db *gorm.DB) contract.BoundaryRepository {
	return &BoundaryRepositoryImpl{db: db}
}

// SearchByTerms matches boundary names against location terms extracted from
// the query. The relevance proxy favours exact name hits (1.0) over partial
// ones, with a small bonus per extra matched term. Spatial operators stay in
// this one raw query; the geometry is returned as WKT.
func (r *BoundaryRepositoryImpl) SearchByTerms(ctx context.Context, terms []string, limit int) ([]*contract.ScoredBoundary, error) {
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
		Id         uuid.UUID
		Name       string
		Kind       string
		Attributes datatypes.JSON
		Geometry   string
		Exact      int
		Matches    int
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Table("regulatory_boundaries").
		Select(`id, name, kind, attributes, ST_AsText(geom) as geometry,
			(CASE WHEN lower(name) = ANY(?::text[]) THEN 1 ELSE 0 END) as exact,
			(SELECT count(*) FROM unnest(?::text[]) term WHERE lower(name) LIKE term) as matches`,
			"{"+strings.Join(lowered(terms), ",")+"}",
			"{"+strings.Join(patterns, ",")+"}").
		Where(buildNameFilter(len(patterns)), nameArgs(patterns)...).
		Order("exact DESC, matches DESC, id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredBoundary, len(rows))
	for i, row := range rows {
		var attrs map[string]interface{}
		if len(row.Attributes) > 0 {
			_ = json.Unmarshal(row.Attributes, &attrs)
		}

		score := 0.5 + 0.1*float64(row.Matches)
		if row.Exact == 1 {
			score = 1.0
		}

		scored[i] = &contract.ScoredBoundary{
			Boundary: &entity.RegulatoryBoundary{
				Id:          row.Id,
				Name:        row.Name,
				Kind:        row.Kind,
				Attributes:  attrs,
				GeometryWKT: row.Geometry,
			},
			Score: score,
		}
	}
	return scored, nil
}

func lowered(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}

func buildNameFilter(n int) string {
	clauses := make([]string, n)
	for i := range clauses {
		clauses[i] = "lower(name) LIKE ?"
	}
	return strings.Join(clauses, " OR ")
}

func nameArgs(patterns []string) []interface{} {
	args := make([]interface{}, len(patterns))
	for i, p := range patterns {
		args[i] = p
	}
	return args
}
