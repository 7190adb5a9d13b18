package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/greenhouse-project/support-service/internal/service"
)

// AdminHandler exposes the data-repair endpoints.
type AdminHandler struct {
	maintenance *service.MaintenanceService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(maintenance *service.MaintenanceService) *AdminHandler {
	return &AdminHandler{maintenance: maintenance}
}

// RecalculateSLA POST /api/admin/recalculate-sla.
func (h *AdminHandler) RecalculateSLA(c *fiber.Ctx) error {
	result, err := h.maintenance.RecalculateSLA(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// FixTimestamps POST /api/admin/fix-timestamps.
func (h *AdminHandler) FixTimestamps(c *fiber.Ctx) error {
	result, err := h.maintenance.FixTimestamps(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
