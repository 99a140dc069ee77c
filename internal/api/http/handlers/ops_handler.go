package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/scheduler"
)

// OpsHandler exposes admin-only operational endpoints: counters and
// manual task triggers.
type OpsHandler struct {
	scheduler *scheduler.Scheduler
	metrics   *observability.Metrics
}

// NewOpsHandler constructs handler.
func NewOpsHandler(sched *scheduler.Scheduler, metrics *observability.Metrics) *OpsHandler {
	return &OpsHandler{scheduler: sched, metrics: metrics}
}

// Metrics handles GET /staff/ops/metrics.
func (h *OpsHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// RunTask handles POST /staff/ops/tasks/:name/run. A task already in
// flight is not queued; the caller gets a conflict instead.
func (h *OpsHandler) RunTask(c *fiber.Ctx) error {
	name := c.Params("name")
	if !h.scheduler.RunNow(c.Context(), name) {
		return fiber.NewError(http.StatusConflict, "task unknown or already running")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"task": name, "status": "triggered"}})
}
