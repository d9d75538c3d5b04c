package controllers

import (
	"strconv"

	"quizmaster/backend/config"
	"quizmaster/backend/middleware"
	"quizmaster/backend/models"
	"quizmaster/backend/store"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type AchievementController struct {
	Store *store.Store
	Cfg   *config.Config
}

func NewAchievementController(s *store.Store, cfg *config.Config) *AchievementController {
	return &AchievementController{Store: s, Cfg: cfg}
}

// ListCatalog godoc
// @Summary List the achievement catalog
// @Description Secret achievements are hidden until the caller unlocks them
// @Tags achievements
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /achievements [get]
func (ac *AchievementController) ListCatalog(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	catalog, err := ac.Store.ListAchievements()
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	unlocked, err := ac.Store.GetUserAchievements(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	have := make(map[string]bool, len(unlocked))
	for _, ua := range unlocked {
		have[ua.AchievementID] = true
	}

	visible := make([]models.Achievement, 0, len(catalog))
	for _, a := range catalog {
		if a.Secret && !have[a.ID] {
			continue
		}
		visible = append(visible, a)
	}
	return utils.Success(c, fiber.StatusOK, visible)
}

// ListUnlocked godoc
// @Summary List the caller's unlocked achievements
// @Tags achievements
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /achievements/mine [get]
func (ac *AchievementController) ListUnlocked(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	rows, err := ac.Store.GetUserAchievements(userID)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.Success(c, fiber.StatusOK, rows)
}

// Leaderboard godoc
// @Summary Ranked leaderboard
// @Description Ordered by total score descending, ranks stamped at read time
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Max entries" default(50)
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /leaderboard [get]
func (ac *AchievementController) Leaderboard(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 50
	}

	rows, err := ac.Store.Leaderboard(limit)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.Success(c, fiber.StatusOK, rows)
}
