package contract

import (
	"context"

	"fishquery-be/internal/entity"
	"fishquery-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// Append inserts a message at its sequence position. It is idempotent
	// under retry: a duplicate (conversation_id, seq) write is dropped and
	// reported as inserted=false, never stored twice or overwritten.
	Append(ctx context.Context, message *entity.Message) (inserted bool, err error)

	// NextSeq returns the next free sequence number for a conversation.
	NextSeq(ctx context.Context, conversationId uuid.UUID) (int, error)

	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
