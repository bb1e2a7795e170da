package service

import (
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/mocks"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockImageService struct {
	mock.Mock
}

func (m *mockImageService) Generate(ctx context.Context, prompt, postID string) (string, error) {
	args := m.Called(ctx, prompt, postID)
	return args.String(0), args.Error(1)
}

type mockTaskScheduler struct {
	mock.Mock
}

func (m *mockTaskScheduler) ScheduleImageAttach(ctx context.Context, postID string) error {
	return m.Called(ctx, postID).Error(0)
}

func (m *mockTaskScheduler) SchedulePublish(ctx context.Context, postID string, at time.Time) error {
	return m.Called(ctx, postID, at).Error(0)
}

type postFixture struct {
	svc    *postService
	posts  *mocks.MockPostRepository
	hist   *mocks.MockPublishAttemptRepository
	gen    *mockGenerator
	images *mockImageService
	tasks  *mockTaskScheduler
}

func newPostFixture(withTasks bool) *postFixture {
	f := &postFixture{
		posts:  new(mocks.MockPostRepository),
		hist:   new(mocks.MockPublishAttemptRepository),
		gen:    new(mockGenerator),
		images: new(mockImageService),
		tasks:  new(mockTaskScheduler),
	}
	cfg := postingConfig()
	f.svc = &postService{
		cfg:    func() *config.Config { return cfg },
		pr:     f.posts,
		pa:     f.hist,
		gen:    f.gen,
		images: f.images,
		now:    func() time.Time { return utc(2, 9) },
	}
	if withTasks {
		f.svc.tasks = f.tasks
	}
	return f
}

var generated = &transfer.GeneratedPost{Content: "five calming habits", ImagePrompt: "quiet forest"}

func TestGenerate_DefaultsToNextSlot(t *testing.T) {
	f := newPostFixture(true)
	f.gen.On("Generate", mock.Anything).Return(generated, nil)
	f.posts.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.ID != "" && p.Status == models.PostStatusScheduled && p.ScheduledFor.Equal(utc(3, 10))
	})).Return("id", nil)
	f.tasks.On("ScheduleImageAttach", mock.Anything, mock.AnythingOfType("string")).Return(nil)
	f.tasks.On("SchedulePublish", mock.Anything, mock.AnythingOfType("string"), utc(3, 10)).Return(nil)

	post, err := f.svc.Generate(context.Background(), &transfer.GeneratePostRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Equal(t, "five calming habits", post.Content)
	f.posts.AssertExpectations(t)
	f.tasks.AssertExpectations(t)
}

func TestGenerate_ExplicitScheduleDate(t *testing.T) {
	f := newPostFixture(true)
	at := time.Date(2024, 2, 1, 15, 30, 0, 0, time.UTC)
	f.gen.On("Generate", mock.Anything).Return(generated, nil)
	f.posts.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.ScheduledFor != nil && p.ScheduledFor.Equal(at)
	})).Return("id", nil)
	f.tasks.On("ScheduleImageAttach", mock.Anything, mock.Anything).Return(nil)
	f.tasks.On("SchedulePublish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	post, err := f.svc.Generate(context.Background(), &transfer.GeneratePostRequest{ScheduleDate: "2024-02-01T15:30:00Z"})
	require.NoError(t, err)
	assert.True(t, post.ScheduledFor.Equal(at))
}

func TestGenerate_WithoutAutoScheduleIsDraft(t *testing.T) {
	f := newPostFixture(true)
	off := false
	f.gen.On("Generate", mock.Anything).Return(generated, nil)
	f.posts.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		return p.Status == models.PostStatusDraft && p.ScheduledFor == nil
	})).Return("id", nil)
	f.tasks.On("ScheduleImageAttach", mock.Anything, mock.Anything).Return(nil)

	post, err := f.svc.Generate(context.Background(), &transfer.GeneratePostRequest{AutoSchedule: &off, ScheduleDate: "2024-02-01T15:30:00Z"})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	f.tasks.AssertNotCalled(t, "SchedulePublish", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerate_BadPatternFailsBeforeGeneration(t *testing.T) {
	f := newPostFixture(true)
	f.svc.cfg = func() *config.Config {
		cfg := postingConfig()
		cfg.Posting.Days = ""
		return cfg
	}

	_, err := f.svc.Generate(context.Background(), nil)
	assert.Error(t, err)
	f.gen.AssertNotCalled(t, "Generate", mock.Anything)
}

func TestCreate_QueueFailureKeepsPost(t *testing.T) {
	f := newPostFixture(true)
	slot := utc(3, 10)
	f.posts.On("Create", mock.Anything, mock.Anything).Return("id", nil)
	f.tasks.On("ScheduleImageAttach", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	f.tasks.On("SchedulePublish", mock.Anything, mock.Anything, slot).Return(errors.New("redis down"))

	post, err := f.svc.Create(context.Background(), generated, &slot)
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
}

func TestCreate_InlineImageWithoutQueue(t *testing.T) {
	f := newPostFixture(false)
	f.posts.On("Create", mock.Anything, mock.Anything).Return("id", nil)
	f.posts.On("GetByID", mock.Anything, mock.AnythingOfType("string")).Return(&models.Post{ID: "p1", ImagePrompt: "quiet forest"}, nil).Once()
	f.images.On("Generate", mock.Anything, "quiet forest", "p1").Return("/generated/x.png", nil)
	f.posts.On("SetImage", mock.Anything, "p1", "/generated/x.png").Return(nil)
	f.posts.On("GetByID", mock.Anything, mock.AnythingOfType("string")).Return(&models.Post{ID: "p1", ImageURL: "/generated/x.png"}, nil).Once()

	post, err := f.svc.Create(context.Background(), generated, nil)
	require.NoError(t, err)
	assert.Equal(t, "/generated/x.png", post.ImageURL)
	f.images.AssertExpectations(t)
	f.posts.AssertExpectations(t)
}

func TestCreate_ImageFailureLeavesPostWithoutImage(t *testing.T) {
	f := newPostFixture(false)
	f.posts.On("Create", mock.Anything, mock.Anything).Return("id", nil)
	f.posts.On("GetByID", mock.Anything, mock.Anything).Return(&models.Post{ID: "p", ImagePrompt: "quiet forest"}, nil)
	f.images.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("content policy"))

	post, err := f.svc.Create(context.Background(), generated, nil)
	require.NoError(t, err)
	assert.Empty(t, post.ImageURL)
	f.posts.AssertNotCalled(t, "SetImage", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_RejectsEmptyContent(t *testing.T) {
	f := newPostFixture(true)

	_, err := f.svc.Create(context.Background(), &transfer.GeneratedPost{}, nil)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestAttachImage_SkipsPostWithImage(t *testing.T) {
	f := newPostFixture(true)
	f.posts.On("GetByID", mock.Anything, "p1").Return(&models.Post{ID: "p1", ImagePrompt: "x", ImageURL: "https://img"}, nil)

	require.NoError(t, f.svc.AttachImage(context.Background(), "p1"))
	f.images.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestList_InvalidStatus(t *testing.T) {
	f := newPostFixture(true)

	_, err := f.svc.List(context.Background(), "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	f := newPostFixture(true)
	f.posts.On("List", mock.Anything, models.PostStatusFailed).Return(nil, nil)

	posts, err := f.svc.List(context.Background(), models.PostStatusFailed)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestRemove_NotFound(t *testing.T) {
	f := newPostFixture(true)
	f.posts.On("Remove", mock.Anything, "missing").Return(repository.ErrPostNotFound)

	err := f.svc.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrPostNotFound)

	err = f.svc.Remove(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrPostNotFound)
}

func TestAttempts(t *testing.T) {
	f := newPostFixture(true)
	f.posts.On("GetByID", mock.Anything, "p1").Return(&models.Post{ID: "p1"}, nil)
	f.hist.On("ListByPostID", mock.Anything, "p1").Return([]*models.PublishAttempt{{ID: 1, PostID: "p1", FellBack: true}}, nil)

	attempts, err := f.svc.Attempts(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].FellBack)
}
