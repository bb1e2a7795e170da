package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const imageAttachRetries = 3

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer puts post follow-up tasks on the asynq queue.
type Enqueuer struct {
	client enqueuer
	now    func() time.Time
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client, now: time.Now}
}

func (e *Enqueuer) ScheduleImageAttach(ctx context.Context, postID string) error {
	return e.enqueue(ctx, TaskTypeAttachImage, postID, asynq.MaxRetry(imageAttachRetries))
}

// SchedulePublish delays the publish task until at. Publishing is never
// retried by the queue; a failed post waits for a manual retry.
func (e *Enqueuer) SchedulePublish(ctx context.Context, postID string, at time.Time) error {
	delay := at.Sub(e.now())
	if delay < 0 {
		delay = 0
	}
	return e.enqueue(ctx, TaskTypePublishPost, postID, asynq.ProcessIn(delay), asynq.MaxRetry(0))
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType, postID string, opts ...asynq.Option) error {
	payload, err := json.Marshal(PostPayload{PostID: postID})
	if err != nil {
		return err
	}

	info, err := e.client.EnqueueContext(ctx, asynq.NewTask(taskType, payload), opts...)
	if err != nil {
		return err
	}

	slog.Info("Task scheduled", "type", taskType, "post_id", postID, "task_id", info.ID)
	return nil
}
