package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
)

type FacebookHandler struct {
	s service.FacebookService
}

func NewFacebookHandler(s service.FacebookService) *FacebookHandler {
	return &FacebookHandler{s: s}
}

func (h *FacebookHandler) VerifyCredentials(c *fiber.Ctx) error {
	valid, err := h.s.VerifyCredentials(c.Context())
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"valid":   false,
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"valid": valid})
}
