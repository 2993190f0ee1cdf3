package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendChatRequest struct {
	ConversationId *uuid.UUID `json:"conversation_id"`
	Message        string     `json:"message" validate:"required,min=1"`
}

type ConversationResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	ConversationId uuid.UUID         `json:"conversation_id"`
	Title          string            `json:"title"`
	Messages       []MessageResponse `json:"messages"`
}
