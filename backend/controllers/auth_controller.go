package controllers

import (
	"quizmaster/backend/config"
	"quizmaster/backend/store"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type AuthController struct {
	Store *store.Store
	Cfg   *config.Config
}

func NewAuthController(s *store.Store, cfg *config.Config) *AuthController {
	return &AuthController{Store: s, Cfg: cfg}
}

// Onboard godoc
// @Summary Create a profile
// @Description Creates a local profile with a fresh session and returns a token
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /auth/onboard [post]
func (ac *AuthController) Onboard(c *fiber.Ctx) error {
	var input store.CreateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	profile, err := ac.Store.CreateUserProfile(input)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateKey):
			return utils.Conflict(c, "Username already taken")
		case errors.Is(err, store.ErrValidation):
			return utils.BadRequest(c, err.Error())
		default:
			return utils.ServiceUnavailable(c, "Storage unavailable")
		}
	}

	session, err := ac.Store.CreateSession(profile.ID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}

	token, err := utils.GenerateJWTToken(profile.ID, session.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Created(c, fiber.Map{
		"token":   token,
		"user":    profile,
		"session": session,
	})
}

// Login godoc
// @Summary Sign in by username
// @Description Resolves a profile by username, reuses or creates its session
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Username == "" {
		return utils.BadRequest(c, "Username is required")
	}

	profile, err := ac.Store.GetUserProfileByUsername(input.Username)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	if profile == nil {
		return utils.NotFound(c, "Profile not found")
	}

	// A crash between profile and session creation can leave a profile with
	// no session; create one lazily here.
	session, err := ac.Store.GetActiveSession(profile.ID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	if session == nil {
		session, err = ac.Store.CreateSession(profile.ID)
		if err != nil {
			return utils.ServiceUnavailable(c, "Storage unavailable")
		}
	} else if err := ac.Store.TouchSession(session.ID); err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}

	token, err := utils.GenerateJWTToken(profile.ID, session.ID, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token":   token,
		"user":    profile,
		"session": session,
	})
}
