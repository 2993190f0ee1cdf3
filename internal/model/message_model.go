package model

import (
	"time"

	"github.com/google/uuid"
)

// Message rows are append-only. The composite unique index makes the append
// idempotent under retry: a duplicate (conversation_id, seq) insert conflicts
// instead of producing a second row.
type Message struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_seq"`
	Role           string    `gorm:"type:varchar(10);not null"`
	Content        string    `gorm:"type:text;not null"`
	Seq            int       `gorm:"not null;uniqueIndex:idx_conversation_seq"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}
