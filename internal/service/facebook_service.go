package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

const (
	photoUploadTimeout = 60 * time.Second
	textPostTimeout    = 15 * time.Second

	// publishLease covers a photo attempt, the text fallback and the status
	// writes that follow. Other publishers skip the row until it runs out.
	publishLease = photoUploadTimeout + textPostTimeout + 30*time.Second
)

// publishableStatuses are the states a post may be published (or retried) from.
var publishableStatuses = []string{models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed}

type FacebookService interface {
	Publish(ctx context.Context, post *models.Post) (string, error)
	PublishByID(ctx context.Context, postID string) (string, error)
	VerifyCredentials(ctx context.Context) (bool, error)
}

type facebookService struct {
	cfg         config.Provider
	client      FacebookClient
	p           repository.PostRepository
	pa          repository.PublishAttemptRepository
	statusRetry retrypolicy.RetryPolicy[any]
	now         func() time.Time
}

func NewFacebookService(
	cfg config.Provider,
	client FacebookClient,
	p repository.PostRepository,
	pa repository.PublishAttemptRepository) FacebookService {
	return &facebookService{
		cfg:         cfg,
		client:      client,
		p:           p,
		pa:          pa,
		statusRetry: newStatusRetryPolicy(),
		now:         time.Now,
	}
}

// newStatusRetryPolicy retries the status write that follows a delivery.
// A row that moved on or vanished is not retried.
func newStatusRetryPolicy() retrypolicy.RetryPolicy[any] {
	return retrypolicy.NewBuilder[any]().
		WithBackoff(200*time.Millisecond, 2*time.Second).
		WithMaxRetries(3).
		HandleIf(retryableStatusError).
		ReturnLastFailure().
		Build()
}

func retryableStatusError(_ any, err error) bool {
	return err != nil &&
		!errors.Is(err, repository.ErrVersionConflict) &&
		!errors.Is(err, repository.ErrPostNotFound)
}

// delivery is the outcome of one publish run. imageErr is the photo failure
// that triggered the text-only fallback, if any.
type delivery struct {
	platformPostID string
	imageErr       error
	err            error
}

func (d delivery) fellBack() bool {
	return d.imageErr != nil
}

func (d delivery) imageErrMessage() string {
	if d.imageErr == nil {
		return ""
	}
	return d.imageErr.Error()
}

func (s *facebookService) PublishByID(ctx context.Context, postID string) (string, error) {
	if postID == "" {
		return "", fmt.Errorf("post id is required: %w", repository.ErrPostNotFound)
	}

	post, err := s.p.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}

	return s.Publish(ctx, post)
}

// Publish delivers the post to the page and records the outcome on its row:
// posted with the platform id, or failed with the last error. The row is
// leased first, so a concurrent publisher of the same post backs off without
// calling Facebook. A post that reached the page before but whose status
// write was lost is marked posted from its attempt history instead of being
// delivered again.
func (s *facebookService) Publish(ctx context.Context, post *models.Post) (string, error) {
	cfg := s.cfg()
	if !cfg.Facebook.Configured() {
		return "", notConfigured("Facebook")
	}

	if post.Status == models.PostStatusPosted {
		return "", ErrAlreadyPosted
	}

	now := s.now()
	version, err := s.p.Claim(ctx, post.ID, post.Version, publishableStatuses, now, now.Add(publishLease))
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			slog.Warn("post is being published elsewhere", "post_id", post.ID)
		}
		return "", err
	}

	// status writes must land even if the caller goes away mid-delivery
	persistCtx := context.WithoutCancel(ctx)

	prior, err := s.pa.LastDelivered(persistCtx, post.ID)
	if err != nil {
		return "", fmt.Errorf("error checking publish history: %w", err)
	}
	if prior != nil {
		slog.Warn("Post was already delivered, restoring posted status", "post_id", post.ID, "platform_post_id", prior.PlatformPostID)
		if err := s.markPosted(persistCtx, post.ID, version, prior.PlatformPostID, prior.CreatedAt, prior.ImageError); err != nil {
			return prior.PlatformPostID, fmt.Errorf("post delivered as %s but status update failed: %w", prior.PlatformPostID, err)
		}
		return prior.PlatformPostID, nil
	}

	d := s.deliver(ctx, cfg, post)
	s.recordAttempt(persistCtx, post.ID, d)

	if d.err != nil {
		slog.Error("Error posting to Facebook", "post_id", post.ID, "err", d.err)
		if err := s.p.MarkFailed(persistCtx, post.ID, version, d.err.Error(), d.imageErrMessage()); err != nil {
			slog.Error("Error saving failed status", "post_id", post.ID, "err", err)
		}
		return "", d.err
	}

	if err := s.markPosted(persistCtx, post.ID, version, d.platformPostID, s.now(), d.imageErrMessage()); err != nil {
		return d.platformPostID, fmt.Errorf("post delivered as %s but status update failed: %w", d.platformPostID, err)
	}

	return d.platformPostID, nil
}

func (s *facebookService) markPosted(ctx context.Context, postID string, version int64, platformPostID string, postedAt time.Time, imageErr string) error {
	return failsafe.With(s.statusRetry).WithContext(ctx).Run(func() error {
		err := s.p.MarkPosted(ctx, postID, version, platformPostID, postedAt, imageErr)
		if err != nil {
			slog.Warn("Error saving posted status", "post_id", postID, "err", err)
		}
		return err
	})
}

// deliver tries a photo post when the post has an image and falls back to a
// text-only post with the same content if the photo is rejected.
func (s *facebookService) deliver(ctx context.Context, cfg *config.Config, post *models.Post) delivery {
	creds := credentialsFrom(cfg.Facebook)

	if post.ImageURL == "" {
		id, err := s.publishText(ctx, creds, post.Content)
		return delivery{platformPostID: id, err: err}
	}

	id, err := s.publishPhoto(ctx, cfg, creds, post)
	if err == nil {
		slog.Info("Photo posted successfully", "post_id", post.ID)
		return delivery{platformPostID: id}
	}

	slog.Warn("Photo upload failed, posting text only", "post_id", post.ID, "err", err)
	imageErr := err

	id, err = s.publishText(ctx, creds, post.Content)
	if err == nil {
		slog.Info("Text-only post successful (photo failed)", "post_id", post.ID)
	}
	return delivery{platformPostID: id, imageErr: imageErr, err: err}
}

func (s *facebookService) publishPhoto(ctx context.Context, cfg *config.Config, creds FacebookCredentials, post *models.Post) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, photoUploadTimeout)
	defer cancel()

	if isRemoteImage(post.ImageURL) {
		return s.client.PublishPhotoURL(ctx, creds, post.ImageURL, post.Content)
	}

	path := localImagePath(cfg.PublicDir, post.ImageURL)
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error opening image file: %w", err)
	}
	defer file.Close()

	return s.client.PublishPhotoFile(ctx, creds, post.Content, filepath.Base(path), file)
}

func (s *facebookService) publishText(ctx context.Context, creds FacebookCredentials, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, textPostTimeout)
	defer cancel()

	return s.client.PublishText(ctx, creds, message)
}

func (s *facebookService) recordAttempt(ctx context.Context, postID string, d delivery) {
	attempt := models.PublishAttempt{
		PostID:         postID,
		PlatformPostID: d.platformPostID,
		ImageError:     d.imageErrMessage(),
		FellBack:       d.fellBack(),
	}
	if d.err != nil {
		attempt.ErrorMessage = d.err.Error()
	}
	if _, err := s.pa.Create(ctx, &attempt); err != nil {
		slog.Error("Error saving publish attempt", "post_id", postID, "err", err)
	}
}

func (s *facebookService) VerifyCredentials(ctx context.Context) (bool, error) {
	cfg := s.cfg()
	if !cfg.Facebook.Configured() {
		return false, nil
	}

	page, err := s.client.PageInfo(ctx, credentialsFrom(cfg.Facebook))
	if err != nil {
		slog.Info("Facebook credentials verification failed", "err", err)
		return false, err
	}

	slog.Info("Facebook credentials verified", "page_id", page.ID, "page_name", page.Name)
	return true, nil
}

func isRemoteImage(imageURL string) bool {
	return strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://")
}

// localImagePath resolves a site-relative image reference inside publicDir.
func localImagePath(publicDir, imageURL string) string {
	return filepath.Join(publicDir, filepath.Clean("/"+imageURL))
}
