package controllers

import (
	"quizmaster/backend/config"
	"quizmaster/backend/middleware"
	"quizmaster/backend/store"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type UserController struct {
	Store *store.Store
	Cfg   *config.Config
}

func NewUserController(s *store.Store, cfg *config.Config) *UserController {
	return &UserController{Store: s, Cfg: cfg}
}

// GetProfile godoc
// @Summary Get user profile
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	profile, err := uc.Store.GetUserProfile(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	if profile == nil {
		return utils.NotFound(c, "User not found")
	}

	return utils.Success(c, fiber.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Applies an allow-listed partial update
// @Tags users
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var upd store.ProfileUpdate
	if err := c.BodyParser(&upd); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if err := uc.Store.UpdateUserProfile(userID, upd); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return utils.NotFound(c, "User not found")
		case errors.Is(err, store.ErrDuplicateKey):
			return utils.Conflict(c, "Username already taken")
		default:
			return utils.ServiceUnavailable(c, "Storage unavailable")
		}
	}

	profile, err := uc.Store.GetUserProfile(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.Success(c, fiber.StatusOK, profile)
}

// GetStats godoc
// @Summary Get derived user stats
// @Description Recomputed from the progress log on every call
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /user/stats [get]
func (uc *UserController) GetStats(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	stats, err := uc.Store.ComputeUserStats(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.Success(c, fiber.StatusOK, stats)
}

// Reset godoc
// @Summary Delete the caller's data
// @Description Removes the profile and every record it owns
// @Tags users
// @Success 204
// @Security ApiKeyAuth
// @Router /user [delete]
func (uc *UserController) Reset(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	if err := uc.Store.DeleteUserData(userID); err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.NoContent(c)
}
