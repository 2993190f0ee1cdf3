package serverutils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishquery-be/internal/entity"
)

func identityApp() (*fiber.App, *entity.Owner) {
	captured := &entity.Owner{}
	app := fiber.New()
	app.Get("/probe", IdentityMiddleware, func(ctx *fiber.Ctx) error {
		*captured = OwnerFromContext(ctx)
		return ctx.SendStatus(fiber.StatusOK)
	})
	return app, captured
}

func TestIdentityMiddlewareBearerClaim(t *testing.T) {
	app, captured := identityApp()
	userId := uuid.New()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
	})
	signed, err := token.SignedString([]byte("gateway-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, captured.UserId)
	assert.Equal(t, userId, *captured.UserId)
}

func TestIdentityMiddlewareSessionKeyFallback(t *testing.T) {
	app, captured := identityApp()

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("X-Session-Key", "anon-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, captured.UserId)
	assert.Equal(t, "anon-123", captured.SessionKey)
}

func TestIdentityMiddlewareNoIdentityRejected(t *testing.T) {
	app, _ := identityApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/probe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestIdentityMiddlewareMalformedToken(t *testing.T) {
	app, _ := identityApp()

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
