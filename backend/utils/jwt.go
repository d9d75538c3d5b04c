package utils

import (
	"time"

	"quizmaster/backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

func GenerateJWTToken(userID, sessionID string, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    userID,
		"session_id": sessionID,
		"exp":        time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ExtractUserIDFromToken returns the user and session ids carried by the
// Authorization header token.
func ExtractUserIDFromToken(c *fiber.Ctx, cfg *config.Config) (string, string, error) {
	tokenString := c.Get("Authorization")
	if tokenString == "" {
		return "", "", fiber.NewError(fiber.StatusUnauthorized, "Missing authorization token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil {
		return "", "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}
	sessionID, _ := claims["session_id"].(string)

	return userID, sessionID, nil
}
