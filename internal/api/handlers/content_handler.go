package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
)

type ContentHandler struct {
	s service.ContentService
}

func NewContentHandler(s service.ContentService) *ContentHandler {
	return &ContentHandler{s: s}
}

func (h *ContentHandler) FetchContent(c *fiber.Ctx) error {
	info, err := h.s.FetchWebsite(c.Context())
	if err != nil {
		return failure(c, "Failed to fetch content", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    info,
	})
}

func (h *ContentHandler) ListContent(c *fiber.Ctx) error {
	sources, err := h.s.List(c.Context())
	if err != nil {
		return failure(c, "Unable to list content", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"content": sources})
}
