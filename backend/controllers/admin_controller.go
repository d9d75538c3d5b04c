package controllers

import (
	"quizmaster/backend/config"
	"quizmaster/backend/maintenance"
	"quizmaster/backend/syncqueue"
	"quizmaster/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminController exposes the maintenance dashboard actions and the sync
// queue status.
type AdminController struct {
	Maintenance *maintenance.Service
	Sync        *syncqueue.Queue
	Cfg         *config.Config
}

func NewAdminController(m *maintenance.Service, q *syncqueue.Queue, cfg *config.Config) *AdminController {
	return &AdminController{Maintenance: m, Sync: q, Cfg: cfg}
}

// RunMaintenance godoc
// @Summary Run maintenance routines
// @Description Any combination of orphan sweep, archival and cache compaction
// @Tags maintenance
// @Accept json
// @Produce json
// @Success 200 {object} maintenance.Report
// @Security ApiKeyAuth
// @Router /maintenance/run [post]
func (mc *AdminController) RunMaintenance(c *fiber.Ctx) error {
	var input struct {
		Orphans bool `json:"orphans"`
		Archive bool `json:"archive"`
		Compact bool `json:"compact"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if !input.Orphans && !input.Archive && !input.Compact {
		return utils.BadRequest(c, "Select at least one routine")
	}

	report := mc.Maintenance.Run(input.Orphans, input.Archive, input.Compact)
	return utils.Success(c, fiber.StatusOK, report)
}

// SyncStatus godoc
// @Summary Sync queue status
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /sync/status [get]
func (mc *AdminController) SyncStatus(c *fiber.Ctx) error {
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"pendingOperations": mc.Sync.Pending(),
		"online":            mc.Sync.Online(),
	})
}

// ForceDrain godoc
// @Summary Trigger a sync drain
// @Description A drain already in progress makes this a no-op
// @Tags sync
// @Success 202
// @Security ApiKeyAuth
// @Router /sync/drain [post]
func (mc *AdminController) ForceDrain(c *fiber.Ctx) error {
	go mc.Sync.Drain()
	return c.SendStatus(fiber.StatusAccepted)
}
