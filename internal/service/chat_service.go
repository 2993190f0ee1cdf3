package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"fishquery-be/internal/dto"
	"fishquery-be/internal/entity"
	"fishquery-be/internal/pkg/logger"
	"fishquery-be/internal/repository/specification"
	"fishquery-be/internal/repository/unitofwork"
	"fishquery-be/pkg/events"
	"fishquery-be/pkg/nats"
	"fishquery-be/pkg/rag/orchestrator"

	"github.com/google/uuid"
)

var (
	ErrConversationNotFound = errors.New("conversation not found or not owned by requester")
	ErrMessageTooLong       = errors.New("message exceeds the maximum length")
	ErrMessageEmpty         = errors.New("message is empty")
)

// IChatService defines the chat service interface
type IChatService interface {
	Query(ctx context.Context, owner entity.Owner, request *dto.SendChatRequest) (uuid.UUID, <-chan orchestrator.Event, error)
	GetConversations(ctx context.Context, owner entity.Owner) ([]*dto.ConversationResponse, error)
	GetHistory(ctx context.Context, owner entity.Owner, conversationId uuid.UUID) (*dto.ChatHistoryResponse, error)
}

type chatService struct {
	uowFactory    unitofwork.RepositoryFactory
	orchestrator  *orchestrator.Orchestrator
	titlePub      IPublisherService
	natsPub       *nats.Publisher
	logger        logger.ILogger
	messageMaxLen int
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	orch *orchestrator.Orchestrator,
	titlePub IPublisherService,
	natsPub *nats.Publisher,
	log logger.ILogger,
	messageMaxLen int,
) IChatService {
	return &chatService{
		uowFactory:    uowFactory,
		orchestrator:  orch,
		titlePub:      titlePub,
		natsPub:       natsPub,
		logger:        log,
		messageMaxLen: messageMaxLen,
	}
}

// Query resolves or creates the conversation, then hands the turn to the
// orchestrator. The returned channel streams the answer.
func (cs *chatService) Query(ctx context.Context, owner entity.Owner, request *dto.SendChatRequest) (uuid.UUID, <-chan orchestrator.Event, error) {
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return uuid.Nil, nil, ErrMessageEmpty
	}
	if cs.messageMaxLen > 0 && len(message) > cs.messageMaxLen {
		return uuid.Nil, nil, ErrMessageTooLong
	}

	conversation, created, err := cs.resolveConversation(ctx, owner, request.ConversationId)
	if err != nil {
		return uuid.Nil, nil, err
	}

	if created && cs.titlePub != nil {
		// Title generation runs off the request path.
		if err := cs.titlePub.PublishTitleJob(conversation.Id, message); err != nil {
			cs.logger.Warn("chat", "failed to schedule title generation", map[string]interface{}{
				"conversation_id": conversation.Id.String(),
				"error":           err.Error(),
			})
		}
	}

	if cs.natsPub != nil {
		if err := cs.natsPub.Publish(ctx, events.BaseEvent{
			Type: "CHAT_TURN_STARTED",
			Data: map[string]interface{}{
				"conversation_id": conversation.Id.String(),
			},
			OccurredAt: time.Now(),
		}); err != nil {
			cs.logger.Warn("chat", "failed to publish turn event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	eventStream, err := cs.orchestrator.Execute(ctx, conversation.Id, message)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return conversation.Id, eventStream, nil
}

func (cs *chatService) resolveConversation(ctx context.Context, owner entity.Owner, conversationId *uuid.UUID) (*entity.Conversation, bool, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ConversationRepository()

	if conversationId != nil {
		conversation, err := repo.FindOne(ctx,
			specification.ByID{ID: *conversationId},
			specification.ByOwner{UserID: owner.UserId, SessionKey: owner.SessionKey},
		)
		if err != nil {
			return nil, false, err
		}
		if conversation == nil {
			return nil, false, ErrConversationNotFound
		}
		return conversation, false, nil
	}

	conversation := &entity.Conversation{
		Id:         uuid.New(),
		UserId:     owner.UserId,
		SessionKey: owner.SessionKey,
		CreatedAt:  time.Now(),
	}
	if err := repo.Create(ctx, conversation); err != nil {
		return nil, false, err
	}
	return conversation, true, nil
}

func (cs *chatService) GetConversations(ctx context.Context, owner entity.Owner) ([]*dto.ConversationResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.ByOwner{UserID: owner.UserId, SessionKey: owner.SessionKey},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ConversationResponse, len(conversations))
	for i, c := range conversations {
		out[i] = &dto.ConversationResponse{
			Id:        c.Id,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
		}
	}
	return out, nil
}

func (cs *chatService) GetHistory(ctx context.Context, owner entity.Owner, conversationId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.ByOwner{UserID: owner.UserId, SessionKey: owner.SessionKey},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	out := &dto.ChatHistoryResponse{
		ConversationId: conversation.Id,
		Title:          conversation.Title,
		Messages:       make([]dto.MessageResponse, len(messages)),
	}
	for i, m := range messages {
		out.Messages[i] = dto.MessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			Seq:       m.Seq,
			CreatedAt: m.CreatedAt,
		}
	}
	return out, nil
}
