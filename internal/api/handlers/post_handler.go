package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type PostHandler struct {
	s         service.PostService
	scheduler service.SchedulerService
	fb        service.FacebookService
}

func NewPostHandler(s service.PostService, scheduler service.SchedulerService, fb service.FacebookService) *PostHandler {
	return &PostHandler{s: s, scheduler: scheduler, fb: fb}
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	if postID := c.Query("id"); postID != "" {
		post, err := h.s.PostInfo(c.Context(), postID)
		if err != nil {
			return failure(c, "Unable to get post", err)
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), c.Query("status"))
	if err != nil {
		return failure(c, "Unable to list posts", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"posts": posts})
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), c.Query("id")); err != nil {
		return failure(c, "Unable to remove post", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *PostHandler) GeneratePost(c *fiber.Ctx) error {
	var req transfer.GeneratePostRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, err)
	}

	post, err := h.s.Generate(c.Context(), &req)
	if err != nil {
		return failure(c, "Failed to generate post", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"post":    post,
	})
}

func (h *PostHandler) ScheduleWeek(c *fiber.Ctx) error {
	result, err := h.scheduler.ScheduleWeek(c.Context())
	if err != nil {
		return failure(c, "Failed to schedule posts", err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) NextSlot(c *fiber.Ctx) error {
	slot, err := h.scheduler.NextPostingDate(c.Context())
	if err != nil {
		return failure(c, "Unable to compute next posting date", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"next_slot": slot.Format(time.RFC3339)})
}

// PublishPost publishes or retries a post immediately.
func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	var req transfer.PublishPostRequest
	if err := bindJSON(c, &req); err != nil {
		return badRequest(c, err)
	}

	platformPostID, err := h.fb.PublishByID(c.Context(), req.PostID)
	if err != nil {
		return failure(c, "Failed to publish post", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":          true,
		"platform_post_id": platformPostID,
	})
}

func (h *PostHandler) ListAttempts(c *fiber.Ctx) error {
	attempts, err := h.s.Attempts(c.Context(), c.Query("id"))
	if err != nil {
		return failure(c, "Unable to list publish attempts", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"attempts": attempts})
}
