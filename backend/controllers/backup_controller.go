package controllers

import (
	"quizmaster/backend/backup"
	"quizmaster/backend/config"
	"quizmaster/backend/store"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type BackupController struct {
	Store *store.Store
	Cfg   *config.Config
}

func NewBackupController(s *store.Store, cfg *config.Config) *BackupController {
	return &BackupController{Store: s, Cfg: cfg}
}

// Export godoc
// @Summary Export all records
// @Tags backup
// @Produce json
// @Success 200 {object} backup.Document
// @Security ApiKeyAuth
// @Router /backup/export [get]
func (bc *BackupController) Export(c *fiber.Ctx) error {
	doc, err := backup.Export(bc.Store)
	if err != nil {
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return c.JSON(doc)
}

// Import godoc
// @Summary Import a backup document
// @Description Strategy is one of overwrite, merge or skip; overwrite with
// @Description replace=true clears all records first
// @Tags backup
// @Accept json
// @Produce json
// @Param strategy query string false "Conflict strategy" default(skip)
// @Param replace query bool false "Clear all records before importing"
// @Success 200 {object} backup.ImportResult
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /backup/import [post]
func (bc *BackupController) Import(c *fiber.Ctx) error {
	var doc backup.Document
	if err := c.BodyParser(&doc); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	strategy := backup.Strategy(c.Query("strategy", string(backup.StrategySkip)))

	if problems := backup.Validate(&doc); len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	if c.QueryBool("replace") && strategy == backup.StrategyOverwrite {
		if err := bc.Store.ClearAll(); err != nil {
			return utils.ServiceUnavailable(c, "Storage unavailable")
		}
	}

	result, err := backup.Import(bc.Store, &doc, strategy)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			return utils.ValidationError(c, []string{err.Error()})
		}
		return utils.ServiceUnavailable(c, "Storage unavailable")
	}
	return utils.Success(c, fiber.StatusOK, result)
}
