package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

const (
	dispatchLockKey = "postpilot:dispatch"
	dispatchLockTTL = 15 * time.Minute
)

var ErrDispatchInProgress = errors.New("a dispatch run is already in progress")

type Locker interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
}

type DispatchJob struct {
	pr     repository.PostRepository
	fb     service.FacebookService
	locker Locker
	now    func() time.Time
}

// NewDispatchJob builds the due-post dispatcher. locker may be nil.
func NewDispatchJob(pr repository.PostRepository, fb service.FacebookService, locker Locker) *DispatchJob {
	return &DispatchJob{
		pr:     pr,
		fb:     fb,
		locker: locker,
		now:    time.Now,
	}
}

// Run publishes every scheduled post whose time has come, oldest slot first,
// one at a time. A failing post is recorded in the results and the run moves
// on. Only failing to list due posts fails the run.
func (j *DispatchJob) Run(ctx context.Context) (*transfer.DispatchResult, error) {
	runID := "dispatch-" + uuid.NewString()

	if j.locker != nil {
		ok, err := j.locker.TryLock(ctx, dispatchLockKey, runID, dispatchLockTTL)
		switch {
		case err != nil:
			slog.Warn("Dispatch lock unavailable, running unguarded", "run_id", runID, "err", err)
		case !ok:
			return nil, ErrDispatchInProgress
		default:
			defer func() {
				if err := j.locker.Unlock(context.Background(), dispatchLockKey, runID); err != nil {
					slog.Warn("Error releasing dispatch lock", "run_id", runID, "err", err)
				}
			}()
		}
	}

	posts, err := j.pr.ListDue(ctx, j.now())
	if err != nil {
		return nil, fmt.Errorf("error listing due posts: %w", err)
	}

	result := &transfer.DispatchResult{
		RunID:   runID,
		Success: true,
		Results: make([]transfer.DispatchItem, 0, len(posts)),
	}

	for _, post := range posts {
		item := transfer.DispatchItem{PostID: post.ID}

		platformPostID, err := j.fb.Publish(ctx, post)
		item.PlatformPostID = platformPostID
		// a platform id means the page has the post, even if its status write failed
		item.Success = platformPostID != ""
		if err != nil {
			item.Error = err.Error()
			slog.Error("Dispatch failed for post", "run_id", runID, "post_id", post.ID, "err", err)
		}

		result.Results = append(result.Results, item)
	}

	result.PostsProcessed = len(result.Results)
	slog.Info("Dispatch run finished", "run_id", runID, "processed", result.PostsProcessed)

	return result, nil
}

// RunScheduled is the cron entry point.
func (j *DispatchJob) RunScheduled() {
	if _, err := j.Run(context.Background()); err != nil {
		if errors.Is(err, ErrDispatchInProgress) {
			slog.Info(err.Error())
			return
		}
		slog.Error("Dispatch run failed", "err", err)
	}
}
