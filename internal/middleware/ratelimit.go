package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"fishquery-be/internal/pkg/logger"
	"fishquery-be/internal/pkg/serverutils"
)

// RateLimiter enforces a fixed-window request quota per caller identity.
// Anonymous callers get a tighter quota than authenticated ones.
type RateLimiter struct {
	client    *redis.Client
	log       logger.ILogger
	authLimit int
	anonLimit int
	window    time.Duration
}

func NewRateLimiter(client *redis.Client, log logger.ILogger) *RateLimiter {
	return &RateLimiter{
		client:    client,
		log:       log,
		authLimit: 60,
		anonLimit: 10,
		window:    time.Minute,
	}
}

func (r *RateLimiter) Handle(ctx *fiber.Ctx) error {
	owner := serverutils.OwnerFromContext(ctx)

	limit := r.anonLimit
	identity := "anon:" + owner.SessionKey
	if owner.UserId != nil {
		limit = r.authLimit
		identity = "user:" + owner.UserId.String()
	}

	key := fmt.Sprintf("ratelimit:%s", identity)

	count, err := r.client.Incr(ctx.Context(), key).Result()
	if err != nil {
		// Redis being down should not take the API down with it.
		r.log.Warn("ratelimit", "redis unavailable, skipping limit", map[string]interface{}{
			"error": err.Error(),
		})
		return ctx.Next()
	}

	if count == 1 {
		r.client.Expire(ctx.Context(), key, r.window)
	}

	if count > int64(limit) {
		return serverutils.ErrorResponse(ctx, fiber.StatusTooManyRequests, "Rate limit exceeded")
	}

	return ctx.Next()
}
