package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RegulatoryBoundary rows live in a PostGIS table. The geometry column is not
// mapped here; boundary queries go through raw SQL in the repository so the
// spatial operators stay in one place.
type RegulatoryBoundary struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string         `gorm:"type:varchar(255);not null;index"`
	Kind       string         `gorm:"type:varchar(50);not null"`
	Attributes datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (RegulatoryBoundary) TableName() string {
	return "regulatory_boundaries"
}
