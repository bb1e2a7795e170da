package servicemocks

import (
	"context"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/stretchr/testify/mock"
)

type MockFacebookService struct {
	mock.Mock
}

var _ service.FacebookService = (*MockFacebookService)(nil)

func (m *MockFacebookService) Publish(ctx context.Context, post *models.Post) (string, error) {
	args := m.Called(ctx, post)
	return args.String(0), args.Error(1)
}

func (m *MockFacebookService) PublishByID(ctx context.Context, postID string) (string, error) {
	args := m.Called(ctx, postID)
	return args.String(0), args.Error(1)
}

func (m *MockFacebookService) VerifyCredentials(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

type MockPostService struct {
	mock.Mock
}

var _ service.PostService = (*MockPostService)(nil)

func (m *MockPostService) Generate(ctx context.Context, req *transfer.GeneratePostRequest) (*models.Post, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) Create(ctx context.Context, gp *transfer.GeneratedPost, scheduledFor *time.Time) (*models.Post, error) {
	args := m.Called(ctx, gp, scheduledFor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) AttachImage(ctx context.Context, postID string) error {
	return m.Called(ctx, postID).Error(0)
}

func (m *MockPostService) List(ctx context.Context, status string) ([]*models.Post, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostService) PostInfo(ctx context.Context, postID string) (*models.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) Remove(ctx context.Context, postID string) error {
	return m.Called(ctx, postID).Error(0)
}

func (m *MockPostService) Attempts(ctx context.Context, postID string) ([]*models.PublishAttempt, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PublishAttempt), args.Error(1)
}

type MockSchedulerService struct {
	mock.Mock
}

var _ service.SchedulerService = (*MockSchedulerService)(nil)

func (m *MockSchedulerService) NextPostingDate(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockSchedulerService) SlotsNeedingPosts(ctx context.Context, windowDays int) ([]time.Time, error) {
	args := m.Called(ctx, windowDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

func (m *MockSchedulerService) ScheduleWeek(ctx context.Context) (*transfer.ScheduleWeekResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.ScheduleWeekResult), args.Error(1)
}
