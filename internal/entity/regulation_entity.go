package entity

import (
	"time"

	"github.com/google/uuid"
)

// RegulationPassage is an embedded document chunk stored in a named collection.
type RegulationPassage struct {
	Id         uuid.UUID
	Collection string
	Document   string
	ChunkIndex int
	CreatedAt  time.Time
}

// GraphEntity is a typed node in the species/regulation property graph.
type GraphEntity struct {
	Id         uuid.UUID
	Name       string
	EntityType string
	Properties map[string]interface{}
}

// GraphRelation is a typed edge between two graph entities, with a traversal
// weight used as the raw relevance score.
type GraphRelation struct {
	Id          uuid.UUID
	SubjectId   uuid.UUID
	SubjectName string
	Predicate   string
	ObjectId    uuid.UUID
	ObjectName  string
	Weight      float64
}

// RegulatoryBoundary is a named spatial feature (closure zone, marine park,
// management area) with its attributes.
type RegulatoryBoundary struct {
	Id         uuid.UUID
	Name       string
	Kind       string
	Attributes map[string]interface{}
	// GeometryWKT carries the boundary geometry as WKT when loaded.
	GeometryWKT string
}
