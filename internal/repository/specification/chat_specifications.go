package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// ByOwner scopes conversations to an authenticated user or, when UserID is
// nil, to an anonymous session key.
type ByOwner struct {
	UserID     *uuid.UUID
	SessionKey string
}

func (s ByOwner) Apply(db *gorm.DB) *gorm.DB {
	if s.UserID != nil {
		return db.Where("user_id = ?", *s.UserID)
	}
	return db.Where("user_id IS NULL AND session_key = ?", s.SessionKey)
}
