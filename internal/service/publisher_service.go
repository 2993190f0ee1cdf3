package service

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IPublisherService interface {
	PublishTitleJob(conversationId uuid.UUID, firstMessage string) error
}

type TitleJobPayload struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	FirstMessage   string    `json:"first_message"`
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) PublishTitleJob(conversationId uuid.UUID, firstMessage string) error {
	payload := TitleJobPayload{
		ConversationId: conversationId,
		FirstMessage:   firstMessage,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	return ps.pubSub.Publish(ps.topicName, msg)
}
