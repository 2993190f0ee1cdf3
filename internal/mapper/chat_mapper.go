package mapper

import (
	"time"

	"fishquery-be/internal/entity"
	"fishquery-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Conversation Mappers

func (m *ChatMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:         c.Id,
		UserId:     c.UserId,
		SessionKey: c.SessionKey,
		Title:      c.Title,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *ChatMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	out := &model.Conversation{
		Id:         c.Id,
		UserId:     c.UserId,
		SessionKey: c.SessionKey,
		Title:      c.Title,
		CreatedAt:  c.CreatedAt,
	}
	if c.UpdatedAt != nil {
		out.UpdatedAt = *c.UpdatedAt
	}
	return out
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		Seq:            msg.Seq,
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		Seq:            msg.Seq,
		CreatedAt:      msg.CreatedAt,
	}
}
