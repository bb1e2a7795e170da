package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type Dispatcher interface {
	Run(ctx context.Context) (*transfer.DispatchResult, error)
}

type CronHandler struct {
	d Dispatcher
}

func NewCronHandler(d Dispatcher) *CronHandler {
	return &CronHandler{d: d}
}

// DispatchDue publishes every post that is due and reports each outcome.
func (h *CronHandler) DispatchDue(c *fiber.Ctx) error {
	result, err := h.d.Run(c.Context())
	if err != nil {
		return failure(c, "Cron job failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
