package controller

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishquery-be/internal/dto"
	"fishquery-be/internal/entity"
	"fishquery-be/internal/pkg/serverutils"
	"fishquery-be/internal/service"
	"fishquery-be/pkg/rag/orchestrator"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeChatService struct {
	mu       sync.Mutex
	queryCtx context.Context
	events   chan orchestrator.Event
	err      error
}

func (f *fakeChatService) Query(ctx context.Context, owner entity.Owner, request *dto.SendChatRequest) (uuid.UUID, <-chan orchestrator.Event, error) {
	f.mu.Lock()
	f.queryCtx = ctx
	f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, nil, f.err
	}
	return uuid.New(), f.events, nil
}

func (f *fakeChatService) GetConversations(ctx context.Context, owner entity.Owner) ([]*dto.ConversationResponse, error) {
	return nil, nil
}

func (f *fakeChatService) GetHistory(ctx context.Context, owner entity.Owner, conversationId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	return nil, nil
}

func (f *fakeChatService) ctx() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queryCtx
}

func queryApp(fake *fakeChatService) *fiber.App {
	ctrl := NewChatController(fake, nil, nopLogger{})
	app := fiber.New()
	app.Post("/chat/v1/query", serverutils.IdentityMiddleware, ctrl.Query)
	return app
}

// The turn must not borrow the fasthttp request context: its Done channel
// only closes on server shutdown and fasthttp recycles it after the handler
// returns. The stream writer owns the turn's lifetime instead, so its exit,
// whether the stream completed or the client dropped, has to cancel the
// context handed to the service.
func TestQueryCancelsTurnContextWhenStreamEnds(t *testing.T) {
	events := make(chan orchestrator.Event, 2)
	events <- orchestrator.Event{Type: orchestrator.EventChunk, Content: "Snapper season is closed "}
	events <- orchestrator.Event{Type: orchestrator.EventDone, Seq: 1, Augmented: true}
	close(events)

	fake := &fakeChatService{events: events}
	app := queryApp(fake)

	body := bytes.NewBufferString(`{"message":"when is snapper season closed"}`)
	req := httptest.NewRequest("POST", "/chat/v1/query", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Key", "anon-777")

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "event: chunk")
	assert.Contains(t, string(payload), "event: done")

	turnCtx := fake.ctx()
	require.NotNil(t, turnCtx)
	require.Eventually(t, func() bool {
		return turnCtx.Err() != nil
	}, 2*time.Second, 10*time.Millisecond, "stream writer exit must cancel the turn context")
	assert.ErrorIs(t, turnCtx.Err(), context.Canceled)
}

func TestQueryCancelsTurnContextOnServiceError(t *testing.T) {
	fake := &fakeChatService{err: service.ErrConversationNotFound}
	app := queryApp(fake)

	body := bytes.NewBufferString(`{"message":"minimum size for bream"}`)
	req := httptest.NewRequest("POST", "/chat/v1/query", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Key", "anon-777")

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	turnCtx := fake.ctx()
	require.NotNil(t, turnCtx)
	assert.ErrorIs(t, turnCtx.Err(), context.Canceled)
}
