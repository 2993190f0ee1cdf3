package history

import (
	"context"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/repository/specification"
	"fishquery-be/internal/repository/unitofwork"
	"fishquery-be/pkg/llm"

	"github.com/google/uuid"
)

// Loader assembles prior turns for the generator prompt.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
	maxTurns   int
	// budgetChars caps the total history size. Oldest turns fall out first;
	// the current query and the fused context are never part of this budget.
	budgetChars int
}

func NewLoader(uowFactory unitofwork.RepositoryFactory, maxTurns, budgetChars int) *Loader {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Loader{
		uowFactory:  uowFactory,
		maxTurns:    maxTurns,
		budgetChars: budgetChars,
	}
}

// LoadConversationHistory returns the most recent turns in chronological
// order, trimmed to the turn and size budgets.
func (l *Loader) LoadConversationHistory(ctx context.Context, conversationId uuid.UUID) ([]llm.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	recent, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "seq", Desc: true},
		specification.Limit{N: l.maxTurns},
	)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		msg := recent[i]
		role := msg.Role
		if role == constant.ChatMessageRoleSystem {
			// Seeded system turns are re-injected by the prompt builder, not
			// replayed from storage.
			continue
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: msg.Content,
		})
	}

	return l.enforceBudget(messages), nil
}

func (l *Loader) enforceBudget(messages []llm.Message) []llm.Message {
	if l.budgetChars <= 0 {
		return messages
	}
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	// Drop oldest first until the remainder fits.
	for len(messages) > 0 && total > l.budgetChars {
		total -= len(messages[0].Content)
		messages = messages[1:]
	}
	return messages
}
