package service

import (
	"context"
	"encoding/json"
	"strings"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/pkg/logger"
	"fishquery-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService generates conversation titles off the request path: the
// first user message, whitespace-collapsed and clamped.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload TitleJobPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "invalid title job payload", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	title := TitleFromMessage(payload.FirstMessage)
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationRepository().UpdateTitle(ctx, payload.ConversationId, title); err != nil {
		cs.logger.Error("consumer", "failed to update conversation title", map[string]interface{}{
			"conversation_id": payload.ConversationId.String(),
			"error":           err.Error(),
		})
	}
}

// TitleFromMessage collapses whitespace and clamps the first message into a
// conversation title.
func TitleFromMessage(message string) string {
	clean := strings.Join(strings.Fields(message), " ")
	runes := []rune(clean)
	if len(runes) > constant.ConversationTitleMaxLen {
		return string(runes[:constant.ConversationTitleMaxLen]) + "..."
	}
	return clean
}
