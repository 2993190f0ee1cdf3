package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"fishquery-be/internal/pkg/logger"
)

// ErrorHandlerMiddleware is the fiber-level error handler. Handlers map
// domain errors to statuses themselves; anything that escapes lands here.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("http", "unhandled error", map[string]interface{}{
				"path":  ctx.Path(),
				"error": err.Error(),
			})
		}

		return ErrorResponse(ctx, code, message)
	}
}
