package history

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishquery-be/internal/constant"
	"fishquery-be/internal/entity"
	"fishquery-be/internal/repository/contract"
	"fishquery-be/internal/repository/specification"
	"fishquery-be/internal/repository/unitofwork"
)

// fakeMessageRepo serves a fixed conversation transcript. FindAll honors the
// OrderBy/Limit specs the loader is expected to send.
type fakeMessageRepo struct {
	contract.MessageRepository
	messages []*entity.Message
}

func (f *fakeMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	limit := len(f.messages)
	for _, s := range specs {
		if l, ok := s.(specification.Limit); ok {
			limit = l.N
		}
	}

	// Newest first, as the seq DESC specification asks.
	out := make([]*entity.Message, 0, limit)
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.messages[i])
	}
	return out, nil
}

type fakeUow struct {
	unitofwork.UnitOfWork
	messages contract.MessageRepository
}

func (f *fakeUow) MessageRepository() contract.MessageRepository { return f.messages }

type fakeFactory struct {
	uow unitofwork.UnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

func transcript(contents ...string) []*entity.Message {
	msgs := make([]*entity.Message, len(contents))
	for i, c := range contents {
		role := constant.ChatMessageRoleUser
		if i%2 == 1 {
			role = constant.ChatMessageRoleAssistant
		}
		msgs[i] = &entity.Message{
			Id:             uuid.New(),
			ConversationId: uuid.New(),
			Role:           role,
			Content:        c,
			Seq:            i,
		}
	}
	return msgs
}

func newLoader(messages []*entity.Message, maxTurns, budget int) *Loader {
	factory := &fakeFactory{uow: &fakeUow{messages: &fakeMessageRepo{messages: messages}}}
	return NewLoader(factory, maxTurns, budget)
}

func TestLoadHistoryChronologicalOrder(t *testing.T) {
	loader := newLoader(transcript("q1", "a1", "q2", "a2"), 10, 0)

	got, err := loader.LoadConversationHistory(context.Background(), uuid.New())

	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "q1", got[0].Content)
	assert.Equal(t, constant.ChatMessageRoleUser, got[0].Role)
	assert.Equal(t, "a2", got[3].Content)
	assert.Equal(t, constant.ChatMessageRoleAssistant, got[3].Role)
}

func TestLoadHistoryTurnLimitKeepsNewest(t *testing.T) {
	loader := newLoader(transcript("q1", "a1", "q2", "a2", "q3", "a3"), 2, 0)

	got, err := loader.LoadConversationHistory(context.Background(), uuid.New())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q3", got[0].Content)
	assert.Equal(t, "a3", got[1].Content)
}

func TestLoadHistoryBudgetDropsOldestFirst(t *testing.T) {
	loader := newLoader(transcript("aaaaaaaaaa", "bbbbb", "ccccc"), 10, 10)

	got, err := loader.LoadConversationHistory(context.Background(), uuid.New())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bbbbb", got[0].Content)
	assert.Equal(t, "ccccc", got[1].Content)
}

func TestLoadHistorySkipsSystemMessages(t *testing.T) {
	messages := transcript("q1", "a1")
	messages = append([]*entity.Message{{
		Id:      uuid.New(),
		Role:    constant.ChatMessageRoleSystem,
		Content: "seeded system prompt",
		Seq:     -1,
	}}, messages...)
	loader := newLoader(messages, 10, 0)

	got, err := loader.LoadConversationHistory(context.Background(), uuid.New())

	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.NotEqual(t, constant.ChatMessageRoleSystem, m.Role)
	}
}

func TestLoadHistoryEmptyConversation(t *testing.T) {
	loader := newLoader(nil, 10, 1000)

	got, err := loader.LoadConversationHistory(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Empty(t, got)
}
