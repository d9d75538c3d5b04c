package controllers

import (
	"quizmaster/backend/config"
	"quizmaster/backend/middleware"
	"quizmaster/backend/models"
	"quizmaster/backend/store"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type SessionController struct {
	Store *store.Store
	Cfg   *config.Config
}

func NewSessionController(s *store.Store, cfg *config.Config) *SessionController {
	return &SessionController{Store: s, Cfg: cfg}
}

// Heartbeat godoc
// @Summary Bump session last-active
// @Description Clients call this every few minutes while the app is open
// @Tags session
// @Success 204
// @Security ApiKeyAuth
// @Router /session/heartbeat [put]
func (sc *SessionController) Heartbeat(c *fiber.Ctx) error {
	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		return utils.BadRequest(c, "Token carries no session")
	}

	if err := sc.Store.TouchSession(sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Session not found")
		}
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.NoContent(c)
}

// UpdatePreferences godoc
// @Summary Update session preferences
// @Tags session
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /session/preferences [put]
func (sc *SessionController) UpdatePreferences(c *fiber.Ctx) error {
	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		return utils.BadRequest(c, "Token carries no session")
	}

	var prefs models.SessionPreferences
	if err := c.BodyParser(&prefs); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if err := sc.Store.UpdateSessionPreferences(sessionID, prefs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Session not found")
		}
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}

	session, err := sc.Store.GetActiveSession(middleware.UserID(c))
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.Success(c, fiber.StatusOK, session)
}
