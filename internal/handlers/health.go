package handlers

import (
	"time"

	"mcstatus/internal/jobs"

	"github.com/gofiber/fiber/v2"
)

// CycleSource exposes the most recent poll cycle
type CycleSource interface {
	LastCycle() *jobs.CycleSnapshot
}

// ScheduleSource exposes the next scheduled poll
type ScheduleSource interface {
	NextRun() time.Time
}

// HealthHandler handles health check requests
type HealthHandler struct {
	cycles       CycleSource
	schedule     ScheduleSource
	pollInterval time.Duration
	now          func() time.Time
}

// NewHealthHandler creates a new health handler. A cycle older than two poll
// intervals marks the service as stale.
func NewHealthHandler(cycles CycleSource, schedule ScheduleSource, pollInterval time.Duration) *HealthHandler {
	return &HealthHandler{
		cycles:       cycles,
		schedule:     schedule,
		pollInterval: pollInterval,
		now:          time.Now,
	}
}

// Handle responds with service health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	now := h.now()
	response := fiber.Map{
		"status":    "starting",
		"lastCycle": nil,
		"timestamp": now.Format(time.RFC3339),
	}

	if h.schedule != nil {
		if next := h.schedule.NextRun(); !next.IsZero() {
			response["nextRun"] = next.Format(time.RFC3339)
		}
	}

	last := h.cycles.LastCycle()
	if last == nil {
		return c.JSON(response)
	}

	response["lastCycle"] = fiber.Map{
		"id":         last.CycleID,
		"finishedAt": last.FinishedAt.Format(time.RFC3339),
		"online":     last.Observation != nil && last.Observation.Online,
		"synced":     last.Reconcile.Synced,
	}

	switch {
	case now.Sub(last.FinishedAt) > 2*h.pollInterval:
		response["status"] = "stale"
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	case !last.Reconcile.Synced:
		response["status"] = "degraded"
	default:
		response["status"] = "healthy"
	}
	return c.JSON(response)
}
