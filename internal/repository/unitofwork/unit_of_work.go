package unitofwork

import (
	"context"

	"fishquery-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	PassageRepository() contract.PassageRepository
	GraphRepository() contract.GraphRepository
	BoundaryRepository() contract.BoundaryRepository
}
