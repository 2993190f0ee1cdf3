package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fishquery-be/internal/entity"
)

// IdentityMiddleware extracts the caller identity. The bearer token is issued
// and validated by the external gateway; this layer only consumes the user_id
// claim. Requests without a token fall back to the X-Session-Key header as an
// anonymous owner; with neither, the request is rejected.
func IdentityMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		tokenStr := authHeader[7:]

		// Signature verification happens at the gateway in front of us.
		parser := jwt.NewParser()
		token, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Malformed token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid claims"})
		}

		userIdStr, _ := claims["user_id"].(string)
		userId, err := uuid.Parse(userIdStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid user claim"})
		}

		ctx.Locals("owner", entity.Owner{UserId: &userId})
		return ctx.Next()
	}

	sessionKey := ctx.Get("X-Session-Key")
	if sessionKey == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing token or session key"})
	}

	ctx.Locals("owner", entity.Owner{SessionKey: sessionKey})
	return ctx.Next()
}

// OwnerFromContext reads the identity stored by IdentityMiddleware.
func OwnerFromContext(ctx *fiber.Ctx) entity.Owner {
	if owner, ok := ctx.Locals("owner").(entity.Owner); ok {
		return owner
	}
	return entity.Owner{}
}
