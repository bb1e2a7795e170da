package handlers

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	job "github.com/maheshrc27/postpilot/internal/jobs"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/pkg/calendar"
)

var validate = validator.New()

// bindJSON parses an optional JSON body into out and validates it.
func bindJSON(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return err
		}
	}
	return validate.Struct(out)
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Invalid request",
		"message": err.Error(),
	})
}

// failure writes err with the status its kind maps to.
func failure(c *fiber.Ctx, summary string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrPostNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrNotConfigured):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, calendar.ErrNoPostingDays):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrAlreadyPosted),
		errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, job.ErrDispatchInProgress):
		status = fiber.StatusConflict
	}

	if status == fiber.StatusInternalServerError {
		slog.Error(summary, "err", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error":   summary,
		"message": err.Error(),
	})
}
