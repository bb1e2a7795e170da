package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
)

func decodePayload(task *asynq.Task) (PostPayload, error) {
	var payload PostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	return payload, nil
}

func (q *Queue) HandleAttachImageTask(ctx context.Context, task *asynq.Task) error {
	payload, err := decodePayload(task)
	if err != nil {
		return err
	}

	err = q.ps.AttachImage(ctx, payload.PostID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrPostNotFound):
		slog.Info("Post removed before image generation", "post_id", payload.PostID)
		return nil
	case errors.Is(err, service.ErrNotConfigured):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		slog.Error("Error attaching image", "post_id", payload.PostID, "err", err)
		return err
	}
}

// HandlePublishPostTask publishes a post at its slot. Posts that were
// published, rescheduled or removed in the meantime are skipped.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	payload, err := decodePayload(task)
	if err != nil {
		return err
	}

	post, err := q.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil
		}
		return err
	}

	if post.Status != models.PostStatusScheduled {
		slog.Info("Skipping publish task", "post_id", post.ID, "status", post.Status)
		return nil
	}
	if post.ScheduledFor != nil && post.ScheduledFor.After(q.now()) {
		slog.Info("Skipping publish task for rescheduled post", "post_id", post.ID)
		return nil
	}

	platformPostID, err := q.fb.Publish(ctx, post)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, service.ErrAlreadyPosted) {
			return nil
		}
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	slog.Info("Post published", "post_id", post.ID, "platform_post_id", platformPostID)
	return nil
}
