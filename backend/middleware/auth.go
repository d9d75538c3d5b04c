package middleware

import (
	"quizmaster/backend/config"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the session token and stashes the caller's user
// and session ids on the request context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, sessionID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals("userID", userID)
		c.Locals("sessionID", sessionID)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// SessionID returns the session id set by AuthMiddleware.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals("sessionID").(string)
	return id
}
