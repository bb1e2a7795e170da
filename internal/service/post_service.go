package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// TaskScheduler hands follow-up work for a post to the background queue.
type TaskScheduler interface {
	ScheduleImageAttach(ctx context.Context, postID string) error
	SchedulePublish(ctx context.Context, postID string, at time.Time) error
}

type PostService interface {
	Generate(ctx context.Context, req *transfer.GeneratePostRequest) (*models.Post, error)
	Create(ctx context.Context, gp *transfer.GeneratedPost, scheduledFor *time.Time) (*models.Post, error)
	AttachImage(ctx context.Context, postID string) error
	List(ctx context.Context, status string) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID string) (*models.Post, error)
	Remove(ctx context.Context, postID string) error
	Attempts(ctx context.Context, postID string) ([]*models.PublishAttempt, error)
}

type postService struct {
	cfg    config.Provider
	pr     repository.PostRepository
	pa     repository.PublishAttemptRepository
	gen    GeneratorService
	images ImageService
	tasks  TaskScheduler
	now    func() time.Time
}

// NewPostService wires the post lifecycle. tasks may be nil, in which case
// images are attached inline and publishing is left to the dispatch job.
func NewPostService(
	cfg config.Provider,
	pr repository.PostRepository,
	pa repository.PublishAttemptRepository,
	gen GeneratorService,
	images ImageService,
	tasks TaskScheduler) PostService {
	return &postService{
		cfg:    cfg,
		pr:     pr,
		pa:     pa,
		gen:    gen,
		images: images,
		tasks:  tasks,
		now:    time.Now,
	}
}

// Generate creates a post from freshly generated content. With auto
// scheduling (the default) it takes the explicit schedule date, or the next
// posting slot when none is given. Without it the post is a draft.
func (s *postService) Generate(ctx context.Context, req *transfer.GeneratePostRequest) (*models.Post, error) {
	if req == nil {
		req = &transfer.GeneratePostRequest{}
	}

	var scheduledFor *time.Time
	if req.AutoSchedule == nil || *req.AutoSchedule {
		at, err := s.scheduleTime(req.ScheduleDate)
		if err != nil {
			return nil, err
		}
		scheduledFor = &at
	}

	gp, err := s.gen.Generate(ctx)
	if err != nil {
		return nil, err
	}

	return s.Create(ctx, gp, scheduledFor)
}

func (s *postService) scheduleTime(scheduleDate string) (time.Time, error) {
	if scheduleDate != "" {
		at, err := time.Parse(time.RFC3339, scheduleDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid schedule date: %w", err)
		}
		return at, nil
	}

	pattern, err := postingPattern(s.cfg())
	if err != nil {
		return time.Time{}, err
	}
	return pattern.NextSlot(s.now())
}

func (s *postService) Create(ctx context.Context, gp *transfer.GeneratedPost, scheduledFor *time.Time) (*models.Post, error) {
	if gp == nil || gp.Content == "" {
		return nil, ErrEmptyContent
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("error creating post id: %w", err)
	}

	post := &models.Post{
		ID:           id,
		Content:      gp.Content,
		ImagePrompt:  gp.ImagePrompt,
		Status:       models.InitialStatus(scheduledFor),
		ScheduledFor: scheduledFor,
	}

	if _, err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	s.queueFollowUps(ctx, post)

	return post, nil
}

// queueFollowUps schedules image attachment and, for scheduled posts, a
// publish at the slot. Failures here never fail creation: the post is stored
// and the dispatch job still picks it up when due.
func (s *postService) queueFollowUps(ctx context.Context, post *models.Post) {
	if s.tasks == nil {
		if post.ImagePrompt != "" {
			if err := s.AttachImage(ctx, post.ID); err != nil {
				slog.Error("Error generating image", "post_id", post.ID, "err", err)
			} else if fresh, err := s.pr.GetByID(ctx, post.ID); err == nil {
				post.ImageURL = fresh.ImageURL
			}
		}
		return
	}

	if post.ImagePrompt != "" {
		if err := s.tasks.ScheduleImageAttach(ctx, post.ID); err != nil {
			slog.Error("Error scheduling image generation", "post_id", post.ID, "err", err)
		}
	}

	if post.ScheduledFor != nil {
		if err := s.tasks.SchedulePublish(ctx, post.ID, *post.ScheduledFor); err != nil {
			slog.Error("Error scheduling publish", "post_id", post.ID, "err", err)
		}
	}
}

// AttachImage generates the post's image and stores its URL. Posts that
// already carry an image, or have no prompt, are left alone.
func (s *postService) AttachImage(ctx context.Context, postID string) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	if post.ImageURL != "" || post.ImagePrompt == "" {
		return nil
	}

	imageURL, err := s.images.Generate(ctx, post.ImagePrompt, post.ID)
	if err != nil {
		return fmt.Errorf("error generating image: %w", err)
	}

	return s.pr.SetImage(ctx, post.ID, imageURL)
}

func (s *postService) List(ctx context.Context, status string) ([]*models.Post, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	posts, err := s.pr.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, fmt.Errorf("post id is required: %w", repository.ErrPostNotFound)
	}
	return s.pr.GetByID(ctx, postID)
}

func (s *postService) Remove(ctx context.Context, postID string) error {
	if postID == "" {
		return fmt.Errorf("post id is required: %w", repository.ErrPostNotFound)
	}

	err := s.pr.Remove(ctx, postID)
	if err != nil && !errors.Is(err, repository.ErrPostNotFound) {
		return fmt.Errorf("error removing post: %w", err)
	}
	return err
}

func (s *postService) Attempts(ctx context.Context, postID string) ([]*models.PublishAttempt, error) {
	if _, err := s.PostInfo(ctx, postID); err != nil {
		return nil, err
	}

	attempts, err := s.pa.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing publish attempts: %w", err)
	}
	if attempts == nil {
		attempts = []*models.PublishAttempt{}
	}
	return attempts, nil
}
