package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// StatusHandler serves the last observation and reconcile outcome
type StatusHandler struct {
	cycles CycleSource
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(cycles CycleSource) *StatusHandler {
	return &StatusHandler{cycles: cycles}
}

// Get returns the most recent cycle snapshot
// GET /api/status
func (h *StatusHandler) Get(c *fiber.Ctx) error {
	last := h.cycles.LastCycle()
	if last == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "No status cycle has completed yet",
		})
	}
	return c.JSON(last)
}
