package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"fishquery-be/internal/dto"
	"fishquery-be/internal/middleware"
	"fishquery-be/internal/pkg/logger"
	"fishquery-be/internal/pkg/serverutils"
	"fishquery-be/internal/service"
	"fishquery-be/pkg/rag/orchestrator"
)

type ChatController struct {
	chatService service.IChatService
	rateLimiter *middleware.RateLimiter
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, rateLimiter *middleware.RateLimiter, log logger.ILogger) *ChatController {
	return &ChatController{
		chatService: chatService,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

func (c *ChatController) RegisterRoutes(router fiber.Router) {
	chat := router.Group("/chat/v1", serverutils.IdentityMiddleware)
	chat.Post("/query", c.rateLimiter.Handle, c.Query)
	chat.Get("/conversations", c.GetConversations)
	chat.Get("/conversations/:id/history", c.GetHistory)
}

// Query runs one RAG turn and streams the answer as server-sent events.
func (c *ChatController) Query(ctx *fiber.Ctx) error {
	request := new(dto.SendChatRequest)
	if err := serverutils.ValidateRequest(ctx, request); err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, err.Error())
	}

	owner := serverutils.OwnerFromContext(ctx)

	// The fasthttp RequestCtx only closes its Done channel on server
	// shutdown, and fasthttp recycles it once the handler returns, so it
	// cannot own the turn's lifetime. The turn gets its own cancellable
	// context instead; the stream writer cancels it when it exits, which
	// covers both normal completion and a dropped client.
	turnCtx, cancelTurn := context.WithCancel(context.Background())

	conversationId, eventCh, err := c.chatService.Query(turnCtx, owner, request)
	if err != nil {
		cancelTurn()
		return c.mapServiceError(ctx, err)
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
	ctx.Set("X-Conversation-Id", conversationId.String())

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancelTurn()
		for event := range eventCh {
			if err := writeSSE(w, event); err != nil {
				// Client went away; the deferred cancel tells the
				// orchestrator to wind down.
				return
			}
		}
	}))

	return nil
}

func writeSSE(w *bufio.Writer, event orchestrator.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

// GetConversations lists the caller's conversations, newest first.
func (c *ChatController) GetConversations(ctx *fiber.Ctx) error {
	owner := serverutils.OwnerFromContext(ctx)

	conversations, err := c.chatService.GetConversations(ctx.Context(), owner)
	if err != nil {
		return c.mapServiceError(ctx, err)
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Conversations retrieved", conversations)
}

// GetHistory returns the full message history of one conversation.
func (c *ChatController) GetHistory(ctx *fiber.Ctx) error {
	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, "Invalid conversation id")
	}

	owner := serverutils.OwnerFromContext(ctx)

	history, err := c.chatService.GetHistory(ctx.Context(), owner, conversationId)
	if err != nil {
		return c.mapServiceError(ctx, err)
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "History retrieved", history)
}

func (c *ChatController) mapServiceError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return serverutils.ErrorResponse(ctx, fiber.StatusNotFound, "Conversation not found")
	case errors.Is(err, service.ErrMessageEmpty), errors.Is(err, service.ErrMessageTooLong):
		return serverutils.ErrorResponse(ctx, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		return nil
	default:
		c.logger.Error("chat_controller", "request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return serverutils.ErrorResponse(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
}
