package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/dto"
	"fishquery-be/internal/entity"
	"fishquery-be/internal/repository/contract"
	"fishquery-be/internal/repository/specification"
	"fishquery-be/internal/repository/unitofwork"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type stubConversationRepo struct {
	contract.ConversationRepository
	conversations []*entity.Conversation
}

func (s *stubConversationRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	var byID *specification.ByID
	var byOwner *specification.ByOwner
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByID:
			byID = &v
		case specification.ByOwner:
			byOwner = &v
		}
	}
	for _, c := range s.conversations {
		if byID != nil && c.Id != byID.ID {
			continue
		}
		if byOwner != nil && !ownerMatches(c, byOwner) {
			continue
		}
		return c, nil
	}
	return nil, nil
}

func (s *stubConversationRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	var byOwner *specification.ByOwner
	for _, sp := range specs {
		if v, ok := sp.(specification.ByOwner); ok {
			byOwner = &v
		}
	}
	var out []*entity.Conversation
	for _, c := range s.conversations {
		if byOwner == nil || ownerMatches(c, byOwner) {
			out = append(out, c)
		}
	}
	return out, nil
}

func ownerMatches(c *entity.Conversation, spec *specification.ByOwner) bool {
	if spec.UserID != nil {
		return c.UserId != nil && *c.UserId == *spec.UserID
	}
	return c.UserId == nil && c.SessionKey == spec.SessionKey
}

type stubMessageRepo struct {
	contract.MessageRepository
	messages []*entity.Message
}

func (s *stubMessageRepo) FindAll(context.Context, ...specification.Specification) ([]*entity.Message, error) {
	return s.messages, nil
}

type stubUow struct {
	unitofwork.UnitOfWork
	conversations contract.ConversationRepository
	messages      contract.MessageRepository
}

func (s *stubUow) ConversationRepository() contract.ConversationRepository { return s.conversations }
func (s *stubUow) MessageRepository() contract.MessageRepository           { return s.messages }

type stubFactory struct {
	uow unitofwork.UnitOfWork
}

func (s *stubFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return s.uow }

func newStubService(conversations []*entity.Conversation, messages []*entity.Message) IChatService {
	factory := &stubFactory{uow: &stubUow{
		conversations: &stubConversationRepo{conversations: conversations},
		messages:      &stubMessageRepo{messages: messages},
	}}
	return NewChatService(factory, nil, nil, nil, nopLogger{}, 200)
}

func TestQueryRejectsEmptyMessage(t *testing.T) {
	svc := newStubService(nil, nil)

	_, _, err := svc.Query(context.Background(), entity.Owner{SessionKey: "s"}, &dto.SendChatRequest{Message: "   "})
	assert.ErrorIs(t, err, ErrMessageEmpty)
}

func TestQueryRejectsOverlongMessage(t *testing.T) {
	svc := newStubService(nil, nil)

	long := strings.Repeat("x", 201)
	_, _, err := svc.Query(context.Background(), entity.Owner{SessionKey: "s"}, &dto.SendChatRequest{Message: long})
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestGetConversationsScopedToOwner(t *testing.T) {
	userId := uuid.New()
	otherId := uuid.New()
	mine := &entity.Conversation{Id: uuid.New(), UserId: &userId, Title: "mine"}
	theirs := &entity.Conversation{Id: uuid.New(), UserId: &otherId, Title: "theirs"}
	anon := &entity.Conversation{Id: uuid.New(), SessionKey: "anon-1", Title: "anon"}

	svc := newStubService([]*entity.Conversation{mine, theirs, anon}, nil)

	got, err := svc.GetConversations(context.Background(), entity.Owner{UserId: &userId})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].Title)

	got, err = svc.GetConversations(context.Background(), entity.Owner{SessionKey: "anon-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "anon", got[0].Title)
}

func TestGetHistory(t *testing.T) {
	userId := uuid.New()
	conversation := &entity.Conversation{Id: uuid.New(), UserId: &userId, Title: "bag limits"}
	messages := []*entity.Message{
		{Id: uuid.New(), ConversationId: conversation.Id, Role: constant.ChatMessageRoleUser, Content: "q", Seq: 0},
		{Id: uuid.New(), ConversationId: conversation.Id, Role: constant.ChatMessageRoleAssistant, Content: "a", Seq: 1},
	}

	svc := newStubService([]*entity.Conversation{conversation}, messages)

	got, err := svc.GetHistory(context.Background(), entity.Owner{UserId: &userId}, conversation.Id)
	require.NoError(t, err)
	assert.Equal(t, "bag limits", got.Title)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, 0, got.Messages[0].Seq)
	assert.Equal(t, 1, got.Messages[1].Seq)
}

func TestGetHistoryWrongOwnerIsNotFound(t *testing.T) {
	userId := uuid.New()
	stranger := uuid.New()
	conversation := &entity.Conversation{Id: uuid.New(), UserId: &userId}

	svc := newStubService([]*entity.Conversation{conversation}, nil)

	_, err := svc.GetHistory(context.Background(), entity.Owner{UserId: &stranger}, conversation.Id)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestGetHistoryUnknownConversation(t *testing.T) {
	svc := newStubService(nil, nil)

	_, err := svc.GetHistory(context.Background(), entity.Owner{SessionKey: "s"}, uuid.New())
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
