package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GraphEntity struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string         `gorm:"type:varchar(255);not null;index"`
	EntityType string         `gorm:"type:varchar(50);not null;index"`
	Properties datatypes.JSON `gorm:"type:jsonb"`
}

func (GraphEntity) TableName() string {
	return "graph_entities"
}

type GraphRelation struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubjectId uuid.UUID `gorm:"type:uuid;not null;index"`
	Predicate string    `gorm:"type:varchar(100);not null"`
	ObjectId  uuid.UUID `gorm:"type:uuid;not null;index"`
	Weight    float64   `gorm:"default:1.0"`
}

func (GraphRelation) TableName() string {
	return "graph_relations"
}
