package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/fitplan-backend/internal/dto"
)

const emailLocal = "email"

// TokenVerifier resolves a bearer token to the email it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token. The token's
// subject is available to later handlers through GetEmail.
func RequireAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return unauthorized(c)
		}

		email, err := verifier.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			return unauthorized(c)
		}

		c.Locals(emailLocal, email)
		return c.Next()
	}
}

// GetEmail returns the authenticated email set by RequireAuth.
func GetEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(emailLocal).(string)
	return email
}

func unauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "invalid token",
	})
}
